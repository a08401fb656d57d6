package firmata

import "fmt"

// ArgumentRangeError reports a caller-supplied value outside the range an
// encoder operation accepts. Nothing is written to the Transport when this
// is returned.
type ArgumentRangeError struct {
	Argument string
	Value    int64
	Min, Max int64
}

func (e *ArgumentRangeError) Error() string {
	return fmt.Sprintf("firmata: argument %q out of range [%d,%d]: %d", e.Argument, e.Min, e.Max, e.Value)
}

// ArgumentNullError reports a required input that was missing.
type ArgumentNullError struct {
	Argument string
}

func (e *ArgumentNullError) Error() string {
	return fmt.Sprintf("firmata: argument %q must not be empty", e.Argument)
}

// TimeoutError reports that a reply-wait deadline elapsed before a
// matching message arrived.
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	if e.Operation == "" {
		return "firmata: timeout"
	}
	return fmt.Sprintf("firmata: timeout waiting for %s", e.Operation)
}

// UnauthorizedError reports that the transport could not be opened,
// typically because another process already holds it.
type UnauthorizedError struct {
	Name    string
	wrapped error
}

func (e *UnauthorizedError) Error() string {
	if e.wrapped == nil {
		return fmt.Sprintf("firmata: unauthorized opening %q", e.Name)
	}
	return fmt.Sprintf("firmata: unauthorized opening %q: %v", e.Name, e.wrapped)
}

func (e *UnauthorizedError) Unwrap() error { return e.wrapped }

// TransportIOError wraps a lower-level I/O failure from the Transport.
type TransportIOError struct {
	wrapped error
}

func (e *TransportIOError) Error() string {
	if e.wrapped == nil {
		return "firmata: transport I/O error"
	}
	return fmt.Sprintf("firmata: transport I/O error: %v", e.wrapped)
}

func (e *TransportIOError) Unwrap() error { return e.wrapped }

// FrameOverflowError reports that the Framer's scratch buffer overflowed
// mid-frame; the in-progress frame was discarded and the Framer reset to
// Idle.
type FrameOverflowError struct {
	Size int
}

func (e *FrameOverflowError) Error() string {
	return fmt.Sprintf("firmata: frame buffer overflow at %d bytes", e.Size)
}

// UnsupportedError marks a SysEx sub-command the decoder does not
// recognize. It is informational: the Dispatcher still delivers a generic
// SysEx message for the caller to inspect, it does not abort decoding.
type UnsupportedError struct {
	SubCommand byte
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("firmata: unsupported sysex sub-command 0x%02X", e.SubCommand)
}

func wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	return &TransportIOError{wrapped: err}
}
