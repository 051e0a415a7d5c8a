package juliet

import (
	"errors"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

func dataContextWords(cif [5]uint32) []uint32 {
	words := make([]uint32, 34)
	words[1] = 0xCAFEBABE
	copy(words[7:12], cif[:])
	return words
}

// TestDecodeDataContextValidCIF is property P3: a Data-Context packet
// with the expected CIF0..CIF4 bitmask decodes without error.
func TestDecodeDataContextValidCIF(t *testing.T) {
	p, err := vrt.NewPacket(dataContextWords(expectedCIF))
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeDataContext(p)
	if err != nil {
		t.Fatalf("DecodeDataContext: %v", err)
	}
	if rec["stream_id"] != uint32(0xCAFEBABE) {
		t.Fatalf("stream_id = %#x, want 0xCAFEBABE", rec["stream_id"])
	}
}

// TestDecodeDataContextRejectsBadCIF is the other half of P3: any single
// flipped CIF bit is a schema assertion failure, not a silent decode.
func TestDecodeDataContextRejectsBadCIF(t *testing.T) {
	bad := expectedCIF
	bad[2] ^= 0x1
	p, err := vrt.NewPacket(dataContextWords(bad))
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	_, err = DecodeDataContext(p)
	if err == nil {
		t.Fatal("expected a schema assertion error for a flipped CIF bit")
	}
	if !errors.Is(err, ErrSchemaAssertion) {
		t.Fatalf("error = %v, want wrapping ErrSchemaAssertion", err)
	}
}

func TestDecodeExtensionCommandUndoesEpochShift(t *testing.T) {
	p, err := vrt.NewPacket(dataContextWords(expectedCIF))
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	ctxRec, err := DecodeDataContext(p)
	if err != nil {
		t.Fatalf("DecodeDataContext: %v", err)
	}
	extRec, err := DecodeExtensionCommand(p)
	if err != nil {
		t.Fatalf("DecodeExtensionCommand: %v", err)
	}
	got := extRec["time"].(float64)
	want := ctxRec["time"].(float64) - julianEpochOffset
	if got != want {
		t.Fatalf("extension_command time = %v, want %v", got, want)
	}
}

func TestDecodeSignalDataSampleCount(t *testing.T) {
	words := make([]uint32, 7+5+1) // 5 samples + 1 trailer word
	words[0] = 0b0001<<28 | 0b100<<24 | uint32(len(words))
	words[1] = 1
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeSignalData(p)
	if err != nil {
		t.Fatalf("DecodeSignalData: %v", err)
	}
	if len(rec["samples_i"].([]int16)) != 5 {
		t.Fatalf("len(samples_i) = %d, want 5", len(rec["samples_i"].([]int16)))
	}
}

func TestDecodeAckRRejectsShortPayload(t *testing.T) {
	words := make([]uint32, 10)
	words[1] = 1
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	if _, err := DecodeAckR(p); err == nil {
		t.Fatal("expected an error for a short ackr payload")
	}
}
