package firmata

import "time"

// Pin is a digital or analog pin identifier in [0,127].
type Pin uint8

// Port groups eight adjacent digital pins, identified in [0,15].
type Port uint8

// Channel is an analog input channel identifier in [0,15].
type Channel uint8

// PinMode is the behavior assigned to a device pin, encoded on the wire
// as the device-defined byte value.
type PinMode uint8

const (
	PinModeDigitalInput  PinMode = 0x00
	PinModeDigitalOutput PinMode = 0x01
	PinModeAnalogInput   PinMode = 0x02
	PinModePwmOutput     PinMode = 0x03
	PinModeServoControl  PinMode = 0x04
	PinModeShift         PinMode = 0x05
	PinModeI2C           PinMode = 0x06
	PinModeOneWire       PinMode = 0x07
	PinModeStepperControl PinMode = 0x08
	PinModeEncoder       PinMode = 0x09
	PinModeSerial        PinMode = 0x0A
	PinModeInputPullup   PinMode = 0x0B
)

var pinModeNames = map[PinMode]string{
	PinModeDigitalInput:   "DigitalInput",
	PinModeDigitalOutput:  "DigitalOutput",
	PinModeAnalogInput:    "AnalogInput",
	PinModePwmOutput:      "PwmOutput",
	PinModeServoControl:   "ServoControl",
	PinModeShift:          "Shift",
	PinModeI2C:            "I2C",
	PinModeOneWire:        "OneWire",
	PinModeStepperControl: "StepperControl",
	PinModeEncoder:        "Encoder",
	PinModeSerial:         "Serial",
	PinModeInputPullup:    "InputPullup",
}

func (m PinMode) String() string {
	if s, ok := pinModeNames[m]; ok {
		return s
	}
	return "Unknown"
}

// ProtocolVersion is the {major, minor} pair reported by RequestProtocolVersion.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// Firmware identifies the sketch running on the device.
type Firmware struct {
	Major uint8
	Minor uint8
	Name  string
}

// AnalogState is a decoded analog input reading.
type AnalogState struct {
	Channel Channel
	Level   uint16 // 14-bit unsigned
}

// DigitalPortState is a decoded 8-bit digital port bitmap.
type DigitalPortState struct {
	Port Port
	Pins uint8
}

// PinState is the device's reported mode and value for a single pin.
type PinState struct {
	Pin   Pin
	Mode  PinMode
	Value uint64
}

// PinCapability describes, for one pin, which modes it supports and at
// what resolution.
type PinCapability struct {
	Pin Pin
	// Resolutions maps a supported mode to its resolution in bits.
	Resolutions map[PinMode]uint8
}

func (c PinCapability) Supports(mode PinMode) bool {
	_, ok := c.Resolutions[mode]
	return ok
}

// BoardCapability is the ordered sequence of per-pin capabilities; a pin's
// index in the slice is its pin number.
type BoardCapability []PinCapability

func (b BoardCapability) Supports(pin Pin, mode PinMode) bool {
	if int(pin) >= len(b) {
		return false
	}
	return b[pin].Supports(mode)
}

// AnalogMappingEntry is one {pin, channel} pair of an AnalogMapping message.
type AnalogMappingEntry struct {
	Pin     Pin
	Channel Channel
}

// AnalogMapping is the ordered sequence of pins that have an analog
// channel assigned; pins with no analog channel are absent.
type AnalogMapping []AnalogMappingEntry

func (m AnalogMapping) ChannelForPin(pin Pin) (Channel, bool) {
	for _, e := range m {
		if e.Pin == pin {
			return e.Channel, true
		}
	}
	return 0, false
}

func (m AnalogMapping) PinForChannel(channel Channel) (Pin, bool) {
	for _, e := range m {
		if e.Channel == channel {
			return e.Pin, true
		}
	}
	return 0, false
}

// SysEx is a generic system-exclusive message: a command byte in [0,0x7F]
// and its raw payload. Emitted for user-defined (0x01-0x0F) and unknown
// sub-commands.
type SysEx struct {
	Command byte
	Payload []byte
}

// StringData is a decoded 0x71 SysEx string message.
type StringData struct {
	Text string
}

// I2CReply is a decoded 0x77 SysEx I2C reply message.
type I2CReply struct {
	Address  uint16
	Register uint16
	Data     []byte
}

// MessageKind discriminates the Message tagged union.
type MessageKind int

const (
	KindAnalogState MessageKind = iota
	KindDigitalPortState
	KindProtocolVersion
	KindFirmware
	KindBoardCapability
	KindAnalogMapping
	KindPinState
	KindSysEx
	KindStringData
	KindI2CReply
)

// Message is a fully decoded, typed frame emitted by the Framer, carrying
// its receive timestamp. Exactly one of the typed fields is meaningful,
// selected by Kind; callers should switch on Kind rather than guess from
// which field is non-zero.
type Message struct {
	Kind      MessageKind
	Timestamp time.Time

	AnalogState      AnalogState
	DigitalPortState DigitalPortState
	ProtocolVersion  ProtocolVersion
	Firmware         Firmware
	BoardCapability  BoardCapability
	AnalogMapping    AnalogMapping
	PinState         PinState
	SysEx            SysEx
	StringData       StringData
	I2CReply         I2CReply
}
