// Package mockserial provides an in-memory firmata.Transport double for
// tests: a command-queue-backed fake device standing in for real
// hardware.
package mockserial

import (
	"sync"
	"time"
)

// Transport is a loopback-style firmata.Transport: bytes written by the
// test subject are captured in Written, and bytes queued via Feed are
// delivered to the subject exactly as a real device would deliver them,
// through the OnBytesAvailable callback.
type Transport struct {
	name string
	baud int

	mu       sync.Mutex
	open     bool
	inbound  []byte
	onBytes  func()
	Written  []byte
	closeErr error
	openErr  error

	onFirmwareRequest func()
}

// New constructs a mock Transport. baud is cosmetic — BaudRate() just
// reports it back, nothing in the mock validates it.
func New(name string, baud int) *Transport {
	return &Transport{name: name, baud: baud}
}

func (t *Transport) Name() string  { return t.name }
func (t *Transport) BaudRate() int { return t.baud }

// FailOpen makes every later Open call return err, simulating an
// UnauthorizedError or other transport-open failure for Finder tests.
func (t *Transport) FailOpen(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr = err
}

func (t *Transport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return t.openErr
	}
	t.open = true
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	return t.closeErr
}

func (t *Transport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *Transport) Write(bs []byte) (int, error) {
	t.mu.Lock()
	t.Written = append(t.Written, bs...)
	t.checkForFirmwareRequestLocked()
	t.mu.Unlock()
	return len(bs), nil
}

func (t *Transport) ReadByte() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbound) == 0 {
		return -1, nil
	}
	b := t.inbound[0]
	t.inbound = t.inbound[1:]
	return int(b), nil
}

func (t *Transport) BytesToRead() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inbound), nil
}

func (t *Transport) OnBytesAvailable(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onBytes = fn
}

// Feed appends bs to the inbound queue and invokes the OnBytesAvailable
// callback synchronously, the same way a real Transport's receive
// goroutine would after a successful Read.
func (t *Transport) Feed(bs []byte) {
	t.mu.Lock()
	t.inbound = append(t.inbound, bs...)
	cb := t.onBytes
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// FeedAfter schedules Feed to run after d, for simulating a device that
// replies late (or never, by passing a delay beyond the test's timeout).
func (t *Transport) FeedAfter(d time.Duration, bs []byte) {
	time.AfterFunc(d, func() { t.Feed(bs) })
}
