package firmata

import "time"

// sysexBufferSize is the Framer's bounded scratch buffer.
// requires at least 2 KiB; double that gives headroom for capability and
// analog-mapping replies on boards with many pins.
const sysexBufferSize = 4096

type frameState int

const (
	stateIdle frameState = iota
	stateCollecting
	stateCollectingSysEx
)

type collectKind int

const (
	collectAnalogState collectKind = iota
	collectDigitalPortState
	collectProtocolVersion
)

// Framer is a byte-driven state machine: Feed is called once per incoming
// byte (from the Transport's OnBytesAvailable callback, on its own
// goroutine) and emits fully decoded Messages through onMessage. Framer
// state is touched only by that goroutine; it must never be called
// concurrently from more than one caller.
type Framer struct {
	state frameState
	kind  collectKind
	cmd   byte
	needed int
	buf   []byte

	onMessage func(Message)
}

// NewFramer constructs a Framer in the Idle state. onMessage is invoked
// synchronously for every fully decoded message, in arrival order.
func NewFramer(onMessage func(Message)) *Framer {
	return &Framer{
		state:     stateIdle,
		buf:       make([]byte, 0, sysexBufferSize),
		onMessage: onMessage,
	}
}

// Reset returns the Framer to Idle and drops any in-progress frame. Used
// by Session.Clear.
func (f *Framer) Reset() {
	f.state = stateIdle
	f.buf = f.buf[:0]
}

// Feed consumes one incoming byte. The top bit (0x80) distinguishes
// command bytes from data bytes belonging to the active message.
func (f *Framer) Feed(b byte) {
	if b&0x80 != 0 {
		f.feedCommand(b)
		return
	}
	f.feedData(b)
}

func (f *Framer) feedCommand(b byte) {
	switch f.state {
	case stateCollectingSysEx:
		if b == 0xF7 {
			f.finishSysEx()
			return
		}
		// A new command byte before the terminator abandons the
		// in-progress SysEx frame (resync policy).
		f.Reset()
	case stateCollecting:
		// A new command byte before the needed data bytes arrived
		// abandons the in-progress frame.
		f.Reset()
	}

	f.classifyCommand(b)
}

func (f *Framer) classifyCommand(b byte) {
	switch {
	case b >= 0xE0 && b <= 0xEF:
		f.cmd = b
		f.kind = collectAnalogState
		f.needed = 2
		f.buf = f.buf[:0]
		f.state = stateCollecting
	case b >= 0x90 && b <= 0x9F:
		f.cmd = b
		f.kind = collectDigitalPortState
		f.needed = 2
		f.buf = f.buf[:0]
		f.state = stateCollecting
	case b == 0xF9:
		f.cmd = b
		f.kind = collectProtocolVersion
		f.needed = 2
		f.buf = f.buf[:0]
		f.state = stateCollecting
	case b == 0xF0:
		f.buf = f.buf[:0]
		f.state = stateCollectingSysEx
	default:
		// Any other 0xF? value, or any other unclassified command
		// byte, resets to Idle without error.
		f.state = stateIdle
	}
}

func (f *Framer) feedData(b byte) {
	switch f.state {
	case stateIdle:
		// Non-command bytes arriving in Idle are silently discarded
		// (stream-resync policy).
		return
	case stateCollecting:
		f.buf = append(f.buf, b)
		if len(f.buf) >= f.needed {
			f.finishCollecting()
		}
	case stateCollectingSysEx:
		if len(f.buf) >= sysexBufferSize {
			std.Warnw("firmata: sysex frame overflow, discarding", "size", len(f.buf))
			f.Reset()
			return
		}
		f.buf = append(f.buf, b)
	}
}

func (f *Framer) finishCollecting() {
	now := time.Now()
	switch f.kind {
	case collectAnalogState:
		channel := Channel(f.cmd & 0x0F)
		level := uint16(f.buf[0]) | uint16(f.buf[1])<<7
		f.emit(Message{
			Kind:        KindAnalogState,
			Timestamp:   now,
			AnalogState: AnalogState{Channel: channel, Level: level},
		})
	case collectDigitalPortState:
		port := Port(f.cmd & 0x0F)
		bitmap := uint8(uint16(f.buf[0]) | uint16(f.buf[1])<<7)
		f.emit(Message{
			Kind:             KindDigitalPortState,
			Timestamp:        now,
			DigitalPortState: DigitalPortState{Port: port, Pins: bitmap},
		})
	case collectProtocolVersion:
		f.emit(Message{
			Kind:            KindProtocolVersion,
			Timestamp:       now,
			ProtocolVersion: ProtocolVersion{Major: f.buf[0], Minor: f.buf[1]},
		})
	}
	f.state = stateIdle
	f.buf = f.buf[:0]
}

func (f *Framer) finishSysEx() {
	msg, ok := decodeSysEx(f.buf)
	f.state = stateIdle
	f.buf = f.buf[:0]
	if ok {
		f.emit(msg)
	}
}

func (f *Framer) emit(msg Message) {
	if f.onMessage != nil {
		f.onMessage(msg)
	}
}

// decodeSysEx decodes the accumulated SysEx body (everything between 0xF0
// and 0xF7, exclusive). The first byte selects the sub-decoder.
func decodeSysEx(body []byte) (Message, bool) {
	now := time.Now()
	if len(body) == 0 {
		return Message{Kind: KindSysEx, Timestamp: now, SysEx: SysEx{Command: 0, Payload: nil}}, true
	}

	sub := body[0]
	rest := body[1:]

	switch sub {
	case 0x6A: // analog mapping response
		mapping := make(AnalogMapping, 0, len(rest))
		for pin, ch := range rest {
			if ch == 0x7F {
				continue
			}
			mapping = append(mapping, AnalogMappingEntry{Pin: Pin(pin), Channel: Channel(ch)})
		}
		return Message{Kind: KindAnalogMapping, Timestamp: now, AnalogMapping: mapping}, true

	case 0x6C: // capability response
		cap := decodeCapability(rest)
		return Message{Kind: KindBoardCapability, Timestamp: now, BoardCapability: cap}, true

	case 0x6E: // pin state response
		if len(rest) < 3 {
			std.Warnw("firmata: pin state response too short", "len", len(rest))
			return Message{}, false
		}
		pin := Pin(rest[0])
		mode := PinMode(rest[1])
		var value uint64
		for i, v := range rest[2:] {
			value |= uint64(v) << uint(7*i)
		}
		return Message{Kind: KindPinState, Timestamp: now, PinState: PinState{Pin: pin, Mode: mode, Value: value}}, true

	case 0x71: // string data
		unpacked, err := Unpack14Bit(rest)
		if err != nil {
			std.Warnw("firmata: string data decode failed", "error", err)
			return Message{}, false
		}
		return Message{Kind: KindStringData, Timestamp: now, StringData: StringData{Text: string(unpacked)}}, true

	case 0x77: // i2c reply
		if len(rest) < 4 {
			std.Warnw("firmata: i2c reply too short", "len", len(rest))
			return Message{}, false
		}
		addr := uint16(rest[0]) | uint16(rest[1])<<7
		reg := uint16(rest[2]) | uint16(rest[3])<<7
		data, err := Unpack14Bit(rest[4:])
		if err != nil {
			std.Warnw("firmata: i2c reply data decode failed", "error", err)
			data = nil
		}
		return Message{Kind: KindI2CReply, Timestamp: now, I2CReply: I2CReply{Address: addr, Register: reg, Data: data}}, true

	case 0x79: // firmware response
		if len(rest) < 2 {
			std.Warnw("firmata: firmware response too short", "len", len(rest))
			return Message{}, false
		}
		major, minor := rest[0], rest[1]
		name, err := Unpack14Bit(rest[2:])
		if err != nil {
			std.Warnw("firmata: firmware name decode failed", "error", err)
			name = nil
		}
		return Message{Kind: KindFirmware, Timestamp: now, Firmware: Firmware{Major: major, Minor: minor, Name: string(name)}}, true

	default:
		if sub >= 0x01 && sub <= 0x0F {
			// User-defined: raw payload, no unpacking.
			payload := append([]byte(nil), rest...)
			return Message{Kind: KindSysEx, Timestamp: now, SysEx: SysEx{Command: sub, Payload: payload}}, true
		}
		std.Warnw("firmata: unsupported sysex sub-command", "command", sub)
		payload := append([]byte(nil), rest...)
		return Message{Kind: KindSysEx, Timestamp: now, SysEx: SysEx{Command: sub, Payload: payload}}, true
	}
}

// decodeCapability parses the 0x6C capability-response body: a sequence of
// per-pin records, each a run of (mode, resolution) pairs terminated by
// 0x7F. The pin index is implied by record position.
func decodeCapability(body []byte) BoardCapability {
	var caps BoardCapability
	pin := 0
	i := 0
	current := PinCapability{Pin: Pin(pin), Resolutions: map[PinMode]uint8{}}
	for i < len(body) {
		b := body[i]
		if b == 0x7F {
			caps = append(caps, current)
			pin++
			current = PinCapability{Pin: Pin(pin), Resolutions: map[PinMode]uint8{}}
			i++
			continue
		}
		if i+1 >= len(body) {
			// Truncated trailing record; drop it.
			break
		}
		mode := PinMode(b)
		res := body[i+1]
		current.Resolutions[mode] = res
		i += 2
	}
	return caps
}
