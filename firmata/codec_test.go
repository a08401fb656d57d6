package firmata

import (
	"bytes"
	"testing"
)

func TestPackUnpack14BitRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"single", []byte{0x00}},
		{"ascii", []byte("Std")},
		{"high bytes", []byte{0xFF, 0x80, 0x7F, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := Pack14Bit(tt.in)
			for _, b := range packed {
				if b&0x80 != 0 {
					t.Fatalf("packed byte 0x%02X has bit 7 set", b)
				}
			}
			got, err := Unpack14Bit(packed)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.in) {
				t.Fatalf("round trip: got %v, want %v", got, tt.in)
			}
		})
	}
}

func TestUnpack14BitOddLength(t *testing.T) {
	_, err := Unpack14Bit([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected error on odd-length input")
	}
}

func TestLEU32RoundTrip(t *testing.T) {
	bs := make([]byte, 4)
	WriteLEU32(bs, 0, 0xDEADBEEF)
	got := ReadLEU32(bs, 0)
	if got != 0xDEADBEEF {
		t.Fatalf("got 0x%X, want 0xDEADBEEF", got)
	}
}

func TestLEI32RoundTrip(t *testing.T) {
	bs := make([]byte, 4)
	WriteLEI32(bs, 0, -12345)
	got := ReadLEI32(bs, 0)
	if got != -12345 {
		t.Fatalf("got %d, want -12345", got)
	}
}
