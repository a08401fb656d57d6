package firmata

// InfiniteTimeoutMs is the sentinel value meaning "block forever" for any
// timeout_ms configuration option.
const InfiniteTimeoutMs = -1

// Transport is the byte-oriented full-duplex connection the core engine
// consumes. Concrete implementations (e.g. firmata/serialport) own the OS
// serial-port driver; the core never talks to the OS directly.
//
// Open, Close and IsOpen manage the connection lifecycle. Write is
// byte-ordered and may block. ReadByte returns the next byte, -1 on
// end-of-stream, or a TimeoutError after the configured read timeout.
// BytesToRead is a pending-bytes hint. OnBytesAvailable registers a
// callback invoked from the Transport's own receive goroutine whenever
// bytes become readable; the core drives its Framer entirely from that
// callback.
type Transport interface {
	Open() error
	Close() error
	IsOpen() bool

	Write(bs []byte) (n int, err error)
	ReadByte() (int, error)
	BytesToRead() (int, error)

	OnBytesAvailable(fn func())

	Name() string
	BaudRate() int
}
