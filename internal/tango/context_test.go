package tango

import (
	"errors"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

// contextHeaderWord builds a VRT header word with tsi=0b10, tsf=0b10
// (§4.7's Context-packet assertion).
func contextHeaderWord() uint32 {
	return 0b10<<22 | 0b10<<20
}

func validContextWords(cif [5]uint32) []uint32 {
	words := make([]uint32, 46)
	words[0] = contextHeaderWord()
	words[1] = 0xABCD1234
	words[2] = 0x08000001 // pad_bit_count=1, OUI=1
	words[3] = 0x00010002 // information_class_code=1, packet_class_code=2
	copy(words[7:12], cif[:])
	return words
}

// TestDecodeContextValidCIFAndClass is the Tango analog of property P3:
// the expected information/packet class and CIF0..CIF4 decode cleanly.
func TestDecodeContextValidCIFAndClass(t *testing.T) {
	p, err := vrt.NewPacket(validContextWords(expectedContextCIF))
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeContext(p)
	if err != nil {
		t.Fatalf("DecodeContext: %v", err)
	}
	if rec["stream_id"] != uint32(0xABCD1234) {
		t.Fatalf("stream_id = %#x, want 0xABCD1234", rec["stream_id"])
	}
}

func TestDecodeContextRejectsWrongPacketClass(t *testing.T) {
	words := validContextWords(expectedContextCIF)
	words[3] = 0x00010099 // packet_class_code != 2
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	_, err = DecodeContext(p)
	if err == nil || !errors.Is(err, ErrSchemaAssertion) {
		t.Fatalf("error = %v, want wrapping ErrSchemaAssertion", err)
	}
}

func TestDecodeContextRejectsBadCIF(t *testing.T) {
	bad := expectedContextCIF
	bad[0] ^= 0x1
	words := validContextWords(bad)
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	_, err = DecodeContext(p)
	if err == nil || !errors.Is(err, ErrSchemaAssertion) {
		t.Fatalf("error = %v, want wrapping ErrSchemaAssertion", err)
	}
}

func TestDecodeContextRejectsWrongTSIMode(t *testing.T) {
	words := validContextWords(expectedContextCIF)
	words[0] = 0b01<<22 | 0b10<<20 // tsi != 0b10
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	_, err = DecodeContext(p)
	if err == nil || !errors.Is(err, ErrSchemaAssertion) {
		t.Fatalf("error = %v, want wrapping ErrSchemaAssertion", err)
	}
}
