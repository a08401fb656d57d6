package firmata

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransportOpener opens a Transport for (deviceName, baud). Implementations
// live in firmata/serialport (a real serial port) and firmata/mockserial
// (tests).
type TransportOpener func(deviceName string, baud BaudRate) (Transport, error)

// AvailabilityPredicate decides whether a freshly started Session is
// talking to a usable device. The default predicate requests firmware and
// accepts major version >= 2.
type AvailabilityPredicate func(session *Session) (bool, error)

// DefaultAvailabilityPredicate is the default availability check: success
// iff the reported firmware major version is >= 2.
func DefaultAvailabilityPredicate(session *Session) (bool, error) {
	fw, err := session.GetFirmware()
	if err != nil {
		return false, err
	}
	return fw.Major >= 2, nil
}

// Finder iterates candidate (device, baud) pairs, standing up a Session
// per attempt and accepting or discarding it based on a predicate.
type Finder struct {
	Open      TransportOpener
	Predicate AvailabilityPredicate
	Config    FinderConfig
}

// NewFinder constructs a Finder with the default availability predicate
// and the given opener/config.
func NewFinder(open TransportOpener, cfg FinderConfig) *Finder {
	return &Finder{Open: open, Predicate: DefaultAvailabilityPredicate, Config: cfg}
}

// candidateBaudRates returns the two-tier baud-rate preference list: the
// primary list first, then the fallback list.
func (f *Finder) candidateBaudRates() []BaudRate {
	out := make([]BaudRate, 0, len(f.Config.PrimaryBaudRates)+len(f.Config.FallbackBaudRates))
	out = append(out, f.Config.PrimaryBaudRates...)
	out = append(out, f.Config.FallbackBaudRates...)
	return out
}

// Find runs the probe algorithm and returns a Session bound to the first
// responsive (device, baud) pair found, with ownership of its
// Session/Transport transferred to the caller. Device iteration order
// follows Config.Devices as given — see DESIGN.md's note on device
// iteration order.
func (f *Finder) Find() (*Session, error) {
	baudRates := f.candidateBaudRates()

	for _, device := range f.Config.Devices {
		attemptID := uuid.New()
		std.Debugw("firmata: finder probing device", "attempt", attemptID, "device", device)

		session, aborted := f.probeDevice(device, baudRates)
		if session != nil {
			return session, nil
		}
		if aborted {
			std.Warnw("firmata: finder aborting device, unauthorized", "device", device)
		}
	}

	return nil, errors.New("firmata: finder: no responsive device found among candidates")
}

// probeDevice tries every baud rate in order for one device name. It
// returns a ready Session on success, or nil with aborted=true if the
// device should be skipped entirely (Unauthorized).
func (f *Finder) probeDevice(device string, baudRates []BaudRate) (found *Session, aborted bool) {
	for _, baud := range baudRates {
		attemptStart := time.Now()

		transport, openErr := f.Open(device, baud)
		if openErr != nil {
			if isAccessDenied(openErr) {
				// Unauthorized: abort this device entirely.
				std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "unauthorized", "duration", time.Since(attemptStart))
				return nil, true
			}
			// Any other error: log and try next baud rate.
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "open-error", "error", openErr, "duration", time.Since(attemptStart))
			continue
		}

		session := NewSession(transport, f.Config.PerAttemptTimeout)
		if err := session.Start(); err != nil {
			_ = session.Dispose()
			_ = transport.Close()
			if isAccessDenied(err) {
				std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "unauthorized", "duration", time.Since(attemptStart))
				return nil, true
			}
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "start-error", "error", err, "duration", time.Since(attemptStart))
			continue
		}

		if f.Config.StartupDelay > 0 {
			time.Sleep(f.Config.StartupDelay)
		}

		predicate := f.Predicate
		if predicate == nil {
			predicate = DefaultAvailabilityPredicate
		}

		ok, predErr := predicate(session)
		if ok {
			// Ownership of both Session and Transport transfers to
			// the caller; nothing is disposed here.
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "accepted", "duration", time.Since(attemptStart))
			return session, false
		}

		_ = session.Dispose()
		_ = transport.Close()

		if predErr == nil {
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "rejected", "duration", time.Since(attemptStart))
			continue
		}

		var timeoutErr *TimeoutError
		if errors.As(predErr, &timeoutErr) {
			// Timeout: try next baud rate.
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "timeout", "duration", time.Since(attemptStart))
			continue
		}
		if isAccessDenied(predErr) {
			std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "unauthorized", "duration", time.Since(attemptStart))
			return nil, true
		}
		// Any other error: log and try next.
		std.Infow("firmata: finder attempt", "device", device, "baud", baud, "outcome", "probe-error", "error", predErr, "duration", time.Since(attemptStart))
	}

	return nil, false
}

// isAccessDenied reports whether err looks like the OS denied access to
// the port (typically because another process holds it).
func isAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		return true
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "access is denied") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "resource busy") ||
		strings.Contains(msg, "device or resource busy")
}
