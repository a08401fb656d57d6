package firmata

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds a Transport to a Framer, Dispatcher, and the command
// encoder; it owns timeout configuration and exposes the synchronous
// request-reply methods by combining encode + wait-for-matching-message.
//
// A Session owns at most one Transport. Whether it opened that Transport
// (and must therefore close it on Dispose) is tracked explicitly in
// ownsTransport — an explicit boolean, not a refcounter.
type Session struct {
	id uuid.UUID

	transport Transport
	framer    *Framer
	dispatch  *Dispatcher

	timeout time.Duration

	mu            sync.Mutex
	ownsTransport bool
	started       bool
}

// NewSession constructs a Session around transport. timeout bounds every
// reply-wait; zero means InfiniteTimeoutMs.
func NewSession(transport Transport, timeout time.Duration) *Session {
	s := &Session{
		id:        uuid.New(),
		transport: transport,
		dispatch:  NewDispatcher(),
		timeout:   timeout,
	}
	s.framer = NewFramer(s.dispatch.Dispatch)
	return s
}

// NewSessionWithConfig is a convenience constructor taking a SessionConfig
// (see firmata.LoadSessionConfig).
func NewSessionWithConfig(transport Transport, cfg SessionConfig) *Session {
	return NewSession(transport, cfg.Timeout)
}

// Start opens the Transport if it isn't already open (recording that this
// Session is the owner in that case) and wires the Framer to the
// Transport's byte-available callback.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if !s.transport.IsOpen() {
		if err := s.transport.Open(); err != nil {
			return classifyOpenErr(s.transport.Name(), err)
		}
		s.ownsTransport = true
	}

	s.transport.OnBytesAvailable(s.pump)
	s.started = true
	std.Debugw("firmata: session started", "session", s.id, "transport", s.transport.Name())
	return nil
}

// pump drains every currently available byte into the Framer. It runs on
// the Transport's own receive goroutine.
func (s *Session) pump() {
	for {
		n, err := s.transport.BytesToRead()
		if err != nil || n <= 0 {
			return
		}
		b, err := s.transport.ReadByte()
		if err != nil || b < 0 {
			return
		}
		s.framer.Feed(byte(b))
	}
}

// Clear closes the transport, drops queued messages, reopens the
// transport, and resets Framer state. Reply-waits already blocked when
// Clear runs are not released: they keep waiting for a match or their
// timeout.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transport.Close(); err != nil {
		return wrapTransportErr(err)
	}
	s.dispatch.Clear()
	s.framer.Reset()

	if err := s.transport.Open(); err != nil {
		return classifyOpenErr(s.transport.Name(), err)
	}
	s.ownsTransport = true
	s.transport.OnBytesAvailable(s.pump)
	return nil
}

// Dispose detaches the Framer from the Transport and, if this Session
// opened the Transport, closes it; otherwise leaves it open.
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	s.transport.OnBytesAvailable(nil)
	if s.ownsTransport {
		return wrapTransportErr(s.transport.Close())
	}
	return nil
}

// write validates nothing itself; each Encode* call already validated its
// arguments before returning bytes, so write never partially emits.
func (s *Session) write(bs []byte) error {
	_, err := s.transport.Write(bs)
	return wrapTransportErr(err)
}

// waitFor blocks for a message matching pred, bounded by the Session
// timeout.
func (s *Session) waitFor(pred MessagePredicate) (Message, error) {
	return s.dispatch.Wait(pred, s.timeout)
}

// SetMessageListener installs the generic message-received listener.
func (s *Session) SetMessageListener(fn func(Message)) {
	s.dispatch.SetMessageListener(fn)
}

// Subscribe registers observer for long-lived notification of the given
// message kind (analog, digital-port, or I2C-reply).
func (s *Session) Subscribe(kind MessageKind, observer Observer) {
	s.dispatch.Subscribe(kind, observer)
}

func (s *Session) Unsubscribe(kind MessageKind, observer Observer) {
	s.dispatch.Unsubscribe(kind, observer)
}

// --- fire-and-forget commands ---

func (s *Session) ResetBoard() error {
	return s.write(EncodeResetBoard())
}

func (s *Session) SetDigitalPin(pin Pin, value uint32) error {
	bs, err := EncodeSetDigitalPin(pin, value)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetDigitalPinBool(pin Pin, value bool) error {
	bs, err := EncodeSetDigitalPinBool(pin, value)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetAnalogReportMode(channel Channel, enable bool) error {
	bs, err := EncodeSetAnalogReportMode(channel, enable)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetDigitalReportMode(port Port, enable bool) error {
	bs, err := EncodeSetDigitalReportMode(port, enable)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetDigitalPort(port Port, bitmap uint8) error {
	bs, err := EncodeSetDigitalPort(port, bitmap)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetDigitalPinMode(pin Pin, mode PinMode) error {
	bs, err := EncodeSetDigitalPinMode(pin, mode)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SetSamplingInterval(ms uint16) error {
	bs, err := EncodeSetSamplingInterval(ms)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) ConfigureServo(pin Pin, minPulse, maxPulse uint16) error {
	bs, err := EncodeConfigureServo(pin, minPulse, maxPulse)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) SendStringData(text string) error {
	return s.write(EncodeSendStringData(text))
}

func (s *Session) SetI2CReadInterval(us uint16) error {
	bs, err := EncodeSetI2CReadInterval(us)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) WriteI2C(address uint16, data []byte) error {
	bs, err := EncodeWriteI2C(address, data)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) ReadI2C(address uint16, hasRegister bool, register uint16, length uint16, mode I2CReadMode) error {
	bs, err := EncodeReadI2C(address, hasRegister, register, length, mode)
	if err != nil {
		return err
	}
	return s.write(bs)
}

func (s *Session) StopI2CReading() error {
	return s.write(EncodeStopI2CReading())
}

func (s *Session) SendSysEx(cmd byte, payload []byte) error {
	bs, err := EncodeSendSysEx(cmd, payload)
	if err != nil {
		return err
	}
	return s.write(bs)
}

// --- synchronous request-reply commands ---

func (s *Session) GetProtocolVersion() (ProtocolVersion, error) {
	if err := s.write(EncodeRequestProtocolVersion()); err != nil {
		return ProtocolVersion{}, err
	}
	msg, err := s.waitFor(func(m Message) bool { return m.Kind == KindProtocolVersion })
	if err != nil {
		return ProtocolVersion{}, err
	}
	return msg.ProtocolVersion, nil
}

func (s *Session) GetFirmware() (Firmware, error) {
	if err := s.write(EncodeRequestFirmware()); err != nil {
		return Firmware{}, err
	}
	msg, err := s.waitFor(func(m Message) bool { return m.Kind == KindFirmware })
	if err != nil {
		return Firmware{}, err
	}
	return msg.Firmware, nil
}

func (s *Session) GetBoardCapability() (BoardCapability, error) {
	if err := s.write(EncodeRequestBoardCapability()); err != nil {
		return nil, err
	}
	msg, err := s.waitFor(func(m Message) bool { return m.Kind == KindBoardCapability })
	if err != nil {
		return nil, err
	}
	return msg.BoardCapability, nil
}

func (s *Session) GetBoardAnalogMapping() (AnalogMapping, error) {
	if err := s.write(EncodeRequestBoardAnalogMapping()); err != nil {
		return nil, err
	}
	msg, err := s.waitFor(func(m Message) bool { return m.Kind == KindAnalogMapping })
	if err != nil {
		return nil, err
	}
	return msg.AnalogMapping, nil
}

func (s *Session) GetPinState(pin Pin) (PinState, error) {
	bs, err := EncodeRequestPinState(pin)
	if err != nil {
		return PinState{}, err
	}
	if err := s.write(bs); err != nil {
		return PinState{}, err
	}
	msg, err := s.waitFor(func(m Message) bool {
		return m.Kind == KindPinState && m.PinState.Pin == pin
	})
	if err != nil {
		return PinState{}, err
	}
	return msg.PinState, nil
}

// ChannelForPin requests the board's analog mapping and reports the
// analog channel assigned to pin, if any.
func (s *Session) ChannelForPin(pin Pin) (Channel, bool, error) {
	mapping, err := s.GetBoardAnalogMapping()
	if err != nil {
		return 0, false, err
	}
	ch, ok := mapping.ChannelForPin(pin)
	return ch, ok, nil
}

// PinForChannel requests the board's analog mapping and reports the pin
// assigned to the given analog channel, if any.
func (s *Session) PinForChannel(channel Channel) (Pin, bool, error) {
	mapping, err := s.GetBoardAnalogMapping()
	if err != nil {
		return 0, false, err
	}
	pin, ok := mapping.PinForChannel(channel)
	return pin, ok, nil
}

// WaitUntilReady requests the protocol version and blocks for the reply,
// as a readiness check for callers that assemble a Session outside
// Finder. Finder's default predicate does not use it; that predicate
// requests the firmware instead.
func (s *Session) WaitUntilReady() (ProtocolVersion, error) {
	return s.GetProtocolVersion()
}

// --- async variants: semantically identical, offload the wait ---

// AsyncResult carries the outcome of an async request-reply call.
type AsyncResult[T any] struct {
	Value T
	Err   error
}

func (s *Session) GetFirmwareAsync() <-chan AsyncResult[Firmware] {
	ch := make(chan AsyncResult[Firmware], 1)
	go func() {
		v, err := s.GetFirmware()
		ch <- AsyncResult[Firmware]{Value: v, Err: err}
	}()
	return ch
}

func (s *Session) GetProtocolVersionAsync() <-chan AsyncResult[ProtocolVersion] {
	ch := make(chan AsyncResult[ProtocolVersion], 1)
	go func() {
		v, err := s.GetProtocolVersion()
		ch <- AsyncResult[ProtocolVersion]{Value: v, Err: err}
	}()
	return ch
}

func (s *Session) GetBoardCapabilityAsync() <-chan AsyncResult[BoardCapability] {
	ch := make(chan AsyncResult[BoardCapability], 1)
	go func() {
		v, err := s.GetBoardCapability()
		ch <- AsyncResult[BoardCapability]{Value: v, Err: err}
	}()
	return ch
}

func (s *Session) GetBoardAnalogMappingAsync() <-chan AsyncResult[AnalogMapping] {
	ch := make(chan AsyncResult[AnalogMapping], 1)
	go func() {
		v, err := s.GetBoardAnalogMapping()
		ch <- AsyncResult[AnalogMapping]{Value: v, Err: err}
	}()
	return ch
}

func (s *Session) GetPinStateAsync(pin Pin) <-chan AsyncResult[PinState] {
	ch := make(chan AsyncResult[PinState], 1)
	go func() {
		v, err := s.GetPinState(pin)
		ch <- AsyncResult[PinState]{Value: v, Err: err}
	}()
	return ch
}

func classifyOpenErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if isAccessDenied(err) {
		return &UnauthorizedError{Name: name, wrapped: err}
	}
	return &TransportIOError{wrapped: err}
}
