package firmata

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeResetBoard(t *testing.T) {
	if got := EncodeResetBoard(); !bytes.Equal(got, []byte{0xFF}) {
		t.Fatalf("got %v, want [0xFF]", got)
	}
}

func TestEncodeSetDigitalPinCompactForm(t *testing.T) {
	got, err := EncodeSetDigitalPin(3, 0x1234)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xE0 | 3, 0x1234 & 0x7F, (0x1234 >> 7) & 0x7F}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// Extended analog form: bytes are computed directly from the
// 7-bit-LE-groups-until-exhausted algorithm, not by inspection — a
// tempting hand-worked example for 0x12345 doesn't match its own
// third group, so the derivation here is arithmetic, not copied.
func TestEncodeSetDigitalPinExtendedForm(t *testing.T) {
	got, err := EncodeSetDigitalPin(20, 0x12345)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xF0, 0x6F, 0x14, 0x45, 0x46, 0x04, 0xF7}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeSetDigitalPinExtendedFormMinimumThreeGroups(t *testing.T) {
	got, err := EncodeSetDigitalPin(20, 0)
	if err != nil {
		t.Fatal(err)
	}
	// value 0 still needs the minimum 3 groups.
	want := []byte{0xF0, 0x6F, 0x14, 0x00, 0x00, 0x00, 0xF7}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeSetDigitalPinRangeGuard(t *testing.T) {
	_, err := EncodeSetDigitalPin(200, 0)
	var rangeErr *ArgumentRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %v, want ArgumentRangeError", err)
	}
}

func TestEncodeRequestFirmware(t *testing.T) {
	got := EncodeRequestFirmware()
	want := []byte{0xF0, 0x79, 0xF7}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeRequestPinState(t *testing.T) {
	got, err := EncodeRequestPinState(42)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xF0, 0x6D, 42, 0xF7}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeConfigureServo(t *testing.T) {
	got, err := EncodeConfigureServo(9, 544, 2400)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xF0, 0x70, 9,
		byte(544 & 0x7F), byte((544 >> 7) & 0x7F),
		byte(2400 & 0x7F), byte((2400 >> 7) & 0x7F),
		0xF7,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeConfigureServoMinExceedsMax(t *testing.T) {
	_, err := EncodeConfigureServo(9, 3000, 544)
	if err == nil {
		t.Fatal("expected error when min pulse exceeds max pulse")
	}
}

func TestEncodeStopI2CReadingIsStopAll(t *testing.T) {
	got := EncodeStopI2CReading()
	want := []byte{0xF0, 0x76, 0x00, 0x18, 0xF7}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeSendSysExRejectsHighBitPayload(t *testing.T) {
	_, err := EncodeSendSysEx(0x01, []byte{0x80})
	if err == nil {
		t.Fatal("expected error for payload byte with bit 7 set")
	}
}

func TestEncodeSendSysExNoHighBitBytesInBody(t *testing.T) {
	got, err := EncodeSendSysEx(0x01, []byte{0x01, 0x02, 0x7F})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range got[2 : len(got)-1] {
		if b&0x80 != 0 {
			t.Fatalf("sysex body byte 0x%02X has bit 7 set", b)
		}
	}
}

func TestEncodeWriteI2CSevenBitAddress(t *testing.T) {
	got, err := EncodeWriteI2C(0x50, []byte{0x01, 0x02})
	if err != nil {
		t.Fatal(err)
	}
	want := sysex(0x76, []byte{0x50, 0x00, 0x01, 0x00, 0x02, 0x00})
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEncodeWriteI2CTenBitAddressSetsFlag(t *testing.T) {
	got, err := EncodeWriteI2C(0x321, nil)
	if err != nil {
		t.Fatal(err)
	}
	modeByte := got[3]
	if modeByte&0x20 == 0 {
		t.Fatalf("expected 10-bit address flag set in mode byte 0x%02X", modeByte)
	}
}

func TestEncodeRangeGuardsNoBytesWritten(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"pin", func() error { _, err := EncodeSetDigitalPinBool(200, true); return err }},
		{"port", func() error { _, err := EncodeSetDigitalPort(16, 0); return err }},
		{"channel", func() error { _, err := EncodeSetAnalogReportMode(16, true); return err }},
		{"sampling interval", func() error { _, err := EncodeSetSamplingInterval(0x4000); return err }},
		{"i2c address", func() error { _, err := EncodeWriteI2C(0x400, nil); return err }},
		{"i2c length", func() error { _, err := EncodeReadI2C(0x50, false, 0, 0x4000, I2CReadOnce); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err == nil {
				t.Fatal("expected a range error, got nil")
			}
		})
	}
}
