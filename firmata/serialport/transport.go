// Package serialport implements firmata.Transport over a real OS serial
// port via go.bug.st/serial. It is the concrete replacement for the
// teacher's snes/fxpakpro driver, generalized from "talk to an FX Pak Pro
// flash cart" to "talk to any Firmata-speaking microcontroller".
package serialport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/jeroenwalter/Arduino/firmata"
)

// readChunkSize is the buffer size the receive goroutine reads into on
// each blocking Read call.
const readChunkSize = 256

// pollInterval bounds how often a standalone ReadByte call (with an empty
// internal buffer) re-checks for data while waiting out its timeout.
const pollInterval = 2 * time.Millisecond

// Transport is a firmata.Transport backed by a real serial port. One
// Transport owns exactly one dedicated receive goroutine, spawned on
// Open and torn down when Close causes its blocking Read to fail.
type Transport struct {
	name        string
	baud        int
	readTimeout time.Duration

	writeMu sync.Mutex
	port    serial.Port

	mu      sync.Mutex
	buf     []byte
	onBytes func()
	closed  bool
}

// New constructs a Transport for name at baud. readTimeout bounds
// standalone ReadByte calls when no data is queued; it does not affect
// Session's normal callback-driven pump, which only calls ReadByte once
// BytesToRead reports data is available.
func New(name string, baud firmata.BaudRate, readTimeout time.Duration) *Transport {
	return &Transport{name: name, baud: int(baud), readTimeout: readTimeout}
}

func (t *Transport) Name() string  { return t.name }
func (t *Transport) BaudRate() int { return t.baud }

// Open opens the serial port at 8N1 and asserts DTR, mirroring
// snes/fxpakpro/driver.go's open sequence (the DTR assertion lets an
// Arduino-style board auto-reset on connect).
func (t *Transport) Open() error {
	mode := &serial.Mode{
		BaudRate: t.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.name, mode)
	if err != nil {
		return err
	}

	if err := port.SetDTR(true); err != nil {
		port.Close()
		return fmt.Errorf("serialport: failed to set DTR: %w", err)
	}

	t.mu.Lock()
	t.port = port
	t.buf = t.buf[:0]
	t.closed = false
	t.mu.Unlock()

	go t.recvLoop(port)
	return nil
}

func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil && !t.closed
}

// Close clears DTR and closes the underlying port, same order as
// snes/fxpakpro/driver.go's Close. The blocking Read in recvLoop then
// fails and the receive goroutine exits on its own.
func (t *Transport) Close() error {
	t.mu.Lock()
	port := t.port
	t.closed = true
	t.mu.Unlock()

	if port == nil {
		return nil
	}
	port.SetDTR(false)
	return port.Close()
}

// Write serializes concurrent writers at byte granularity: this mutex is
// the Transport's synchronization boundary.
func (t *Transport) Write(bs []byte) (int, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, fmt.Errorf("serialport: %s: not open", t.name)
	}

	sent := 0
	for sent < len(bs) {
		n, err := port.Write(bs[sent:])
		if err != nil {
			return sent, err
		}
		sent += n
	}
	return sent, nil
}

// ReadByte pops the next buffered byte, or waits up to readTimeout for one
// to arrive.
func (t *Transport) ReadByte() (int, error) {
	deadline := time.Now().Add(t.readTimeout)
	infinite := t.readTimeout <= 0

	for {
		t.mu.Lock()
		if len(t.buf) > 0 {
			b := t.buf[0]
			t.buf = t.buf[1:]
			t.mu.Unlock()
			return int(b), nil
		}
		closed := t.closed
		t.mu.Unlock()

		if closed {
			return -1, nil
		}
		if !infinite && time.Now().After(deadline) {
			return 0, &firmata.TimeoutError{Operation: "ReadByte"}
		}
		time.Sleep(pollInterval)
	}
}

// BytesToRead reports how many bytes are queued and ready for ReadByte.
func (t *Transport) BytesToRead() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf), nil
}

// OnBytesAvailable registers fn to be invoked (from the receive goroutine)
// whenever new bytes are appended to the internal buffer. Pass nil to
// detach.
func (t *Transport) OnBytesAvailable(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onBytes = fn
}

func (t *Transport) recvLoop(port serial.Port) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := port.Read(chunk)
		if err != nil {
			return
		}
		if n <= 0 {
			// go.bug.st/serial returns (0, nil) on a closed port
			// instead of an error on some platforms; treat it the
			// same as end-of-stream.
			return
		}

		t.mu.Lock()
		t.buf = append(t.buf, chunk[:n]...)
		cb := t.onBytes
		t.mu.Unlock()

		if cb != nil {
			cb()
		}
	}
}
