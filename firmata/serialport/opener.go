package serialport

import (
	"time"

	"github.com/jeroenwalter/Arduino/firmata"
)

// Opener returns a firmata.TransportOpener backed by real serial ports,
// for use with firmata.Finder. readTimeout bounds standalone ReadByte
// calls on the returned Transport (see Transport.ReadByte).
//
// The returned Transport is left unopened: Session.Start opens it and, in
// doing so, records itself as the owner responsible for closing it again
// on Dispose. Opening it here instead would leave the winning candidate's
// port and receive goroutine unowned by anything, since Finder hands the
// caller only the Session, never the Transport.
func Opener(readTimeout time.Duration) firmata.TransportOpener {
	return func(deviceName string, baud firmata.BaudRate) (firmata.Transport, error) {
		return New(deviceName, baud, readTimeout), nil
	}
}
