package firmata

import "fmt"

func rangeErr(arg string, v, min, max int64) error {
	return &ArgumentRangeError{Argument: arg, Value: v, Min: min, Max: max}
}

func checkPin(pin Pin) error {
	if pin > 127 {
		return rangeErr("pin", int64(pin), 0, 127)
	}
	return nil
}

func checkPort(port Port) error {
	if port > 15 {
		return rangeErr("port", int64(port), 0, 15)
	}
	return nil
}

func checkChannel(ch Channel) error {
	if ch > 15 {
		return rangeErr("channel", int64(ch), 0, 15)
	}
	return nil
}

// ResetBoard: 0xFF
func EncodeResetBoard() []byte {
	return []byte{0xFF}
}

// SetDigitalPin encodes a digital pin write. When pin < 16 and value fits
// in 14 bits it uses the compact analog-style encoding; otherwise it falls
// back to the extended-analog SysEx form with as many 7-bit groups as
// needed (minimum 3).
func EncodeSetDigitalPin(pin Pin, value uint32) ([]byte, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	if pin < 16 && value < 0x4000 {
		return []byte{0xE0 | byte(pin), byte(value & 0x7F), byte((value >> 7) & 0x7F)}, nil
	}
	return encodeExtendedAnalog(pin, value), nil
}

// EncodeSetDigitalPinBool encodes the boolean form: 0xF5, pin, 0/1.
func EncodeSetDigitalPinBool(pin Pin, value bool) ([]byte, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	v := byte(0)
	if value {
		v = 1
	}
	return []byte{0xF5, byte(pin), v}, nil
}

func encodeExtendedAnalog(pin Pin, value uint32) []byte {
	out := []byte{0xF0, 0x6F, byte(pin)}
	groups := 0
	v := value
	for v != 0 || groups < 3 {
		out = append(out, byte(v&0x7F))
		v >>= 7
		groups++
	}
	out = append(out, 0xF7)
	return out
}

// SetAnalogReportMode: (0xC0 | channel), en
func EncodeSetAnalogReportMode(channel Channel, enable bool) ([]byte, error) {
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	return []byte{0xC0 | byte(channel), boolByte(enable)}, nil
}

// SetDigitalReportMode: (0xD0 | port), en
func EncodeSetDigitalReportMode(port Port, enable bool) ([]byte, error) {
	if err := checkPort(port); err != nil {
		return nil, err
	}
	return []byte{0xD0 | byte(port), boolByte(enable)}, nil
}

// SetDigitalPort: (0x90 | port), bitmap&0x7F, (bitmap>>7)&0x03
func EncodeSetDigitalPort(port Port, bitmap uint8) ([]byte, error) {
	if err := checkPort(port); err != nil {
		return nil, err
	}
	return []byte{0x90 | byte(port), bitmap & 0x7F, (bitmap >> 7) & 0x03}, nil
}

// SetDigitalPinMode: 0xF4, pin, mode
func EncodeSetDigitalPinMode(pin Pin, mode PinMode) ([]byte, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	return []byte{0xF4, byte(pin), byte(mode)}, nil
}

// SetSamplingInterval: 0xF0 0x7A lo7 hi7 0xF7
func EncodeSetSamplingInterval(ms uint16) ([]byte, error) {
	if ms > 0x3FFF {
		return nil, rangeErr("sampling_interval_ms", int64(ms), 0, 0x3FFF)
	}
	return sysexU14(0x7A, ms), nil
}

// RequestProtocolVersion: 0xF9
func EncodeRequestProtocolVersion() []byte {
	return []byte{0xF9}
}

// RequestFirmware: 0xF0 0x79 0xF7
func EncodeRequestFirmware() []byte {
	return sysex(0x79, nil)
}

// RequestBoardCapability: 0xF0 0x6B 0xF7
func EncodeRequestBoardCapability() []byte {
	return sysex(0x6B, nil)
}

// RequestBoardAnalogMapping: 0xF0 0x69 0xF7
func EncodeRequestBoardAnalogMapping() []byte {
	return sysex(0x69, nil)
}

// RequestPinState: 0xF0 0x6D pin 0xF7
func EncodeRequestPinState(pin Pin) ([]byte, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	return sysex(0x6D, []byte{byte(pin)}), nil
}

// ConfigureServo: 0xF0 0x70 pin minLo minHi maxLo maxHi 0xF7
func EncodeConfigureServo(pin Pin, minPulse, maxPulse uint16) ([]byte, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	if minPulse > 0x3FFF {
		return nil, rangeErr("min_pulse", int64(minPulse), 0, 0x3FFF)
	}
	if maxPulse > 0x3FFF {
		return nil, rangeErr("max_pulse", int64(maxPulse), 0, 0x3FFF)
	}
	if minPulse > maxPulse {
		return nil, fmt.Errorf("firmata: ConfigureServo: min_pulse %d exceeds max_pulse %d", minPulse, maxPulse)
	}
	payload := []byte{
		byte(pin),
		byte(minPulse & 0x7F), byte((minPulse >> 7) & 0x7F),
		byte(maxPulse & 0x7F), byte((maxPulse >> 7) & 0x7F),
	}
	return sysex(0x70, payload), nil
}

// SendStringData: 0xF0 0x71 (14-bit-pack each code unit) 0xF7
//
// Each rune is packed as its low 14 bits. Behavior for scalars outside
// [0,0x3FFF] is unspecified upstream; this truncates silently rather than
// guessing a different policy.
func EncodeSendStringData(text string) []byte {
	runes := []rune(text)
	raw := make([]byte, 0, len(runes)*2)
	for _, r := range runes {
		v := uint16(r) & 0x3FFF
		raw = append(raw, byte(v&0x7F), byte((v>>7)&0x7F))
	}
	out := []byte{0xF0, 0x71}
	out = append(out, raw...)
	out = append(out, 0xF7)
	return out
}

// SetI2CReadInterval: 0xF0 0x78 lo7 hi7 0xF7
func EncodeSetI2CReadInterval(us uint16) ([]byte, error) {
	if us > 0x3FFF {
		return nil, rangeErr("i2c_read_interval_us", int64(us), 0, 0x3FFF)
	}
	return sysexU14(0x78, us), nil
}

// WriteI2C: 0xF0 0x76 addrLo7 modeByte (14-bit-pack data...) 0xF7
func EncodeWriteI2C(address uint16, data []byte) ([]byte, error) {
	if address > 0x3FF {
		return nil, rangeErr("i2c_address", int64(address), 0, 0x3FF)
	}
	modeByte := byte((address >> 7) & 0x07)
	if address > 0x7F {
		modeByte |= 0x20
	}
	payload := []byte{byte(address & 0x7F), modeByte}
	payload = append(payload, Pack14Bit(data)...)
	return sysex(0x76, payload), nil
}

// I2CReadMode selects once vs continuous reads for ReadI2C.
type I2CReadMode int

const (
	I2CReadOnce I2CReadMode = iota
	I2CReadContinuous
)

// ReadI2C encodes a once/continuous I2C read request, with an optional
// register (pass hasRegister=false to omit it).
func EncodeReadI2C(address uint16, hasRegister bool, register uint16, length uint16, mode I2CReadMode) ([]byte, error) {
	if address > 0x3FF {
		return nil, rangeErr("i2c_address", int64(address), 0, 0x3FF)
	}
	if length > 0x3FFF {
		return nil, rangeErr("i2c_length", int64(length), 0, 0x3FFF)
	}
	modeByte := byte((address >> 7) & 0x07)
	if address > 0x7F {
		modeByte |= 0x20
	}
	switch mode {
	case I2CReadOnce:
		modeByte |= 0x08
	case I2CReadContinuous:
		modeByte |= 0x10
	}

	payload := []byte{byte(address & 0x7F), modeByte}
	if hasRegister {
		payload = append(payload, byte(register&0x7F), byte((register>>7)&0x7F))
	}
	payload = append(payload, byte(length&0x7F), byte((length>>7)&0x7F))
	return sysex(0x76, payload), nil
}

// StopI2CReading: 0xF0 0x76 0x00 0x18 0xF7 — stops all queries. The
// common firmware implementations do not support per-query stop, so
// this module only offers the "stop all" form.
func EncodeStopI2CReading() []byte {
	return sysex(0x76, []byte{0x00, 0x18})
}

// SendSysEx: 0xF0 cmd (payload verbatim) 0xF7
func EncodeSendSysEx(cmd byte, payload []byte) ([]byte, error) {
	if cmd > 0x7F {
		return nil, rangeErr("sysex_command", int64(cmd), 0, 0x7F)
	}
	for _, b := range payload {
		if b&0x80 != 0 {
			return nil, fmt.Errorf("firmata: SendSysEx: payload byte 0x%02X has bit 7 set", b)
		}
	}
	return sysex(cmd, payload), nil
}

func sysex(cmd byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+3)
	out = append(out, 0xF0, cmd)
	out = append(out, payload...)
	out = append(out, 0xF7)
	return out
}

func sysexU14(cmd byte, v uint16) []byte {
	return sysex(cmd, []byte{byte(v & 0x7F), byte((v >> 7) & 0x7F)})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
