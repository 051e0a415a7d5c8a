package juliet

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
)

// buildJulietFrame builds one 12-byte-header + word_count-word Juliet
// frame, with the payload supplied already in wire order (big-endian
// words, to be byte-swapped back by the reader under test).
func buildJulietFrame(timeMSW, timeLSW uint32, words []uint32) []byte {
	var buf bytes.Buffer
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], timeMSW)
	binary.LittleEndian.PutUint32(hdr[4:8], timeLSW)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(words)))
	buf.Write(hdr[:])
	for _, w := range words {
		var wb [4]byte
		binary.BigEndian.PutUint32(wb[:], w)
		buf.Write(wb[:])
	}
	return buf.Bytes()
}

// TestFrameReaderLengthAccounting is property P4: bytes_read_after -
// bytes_read_before = framing_overhead (12) + 4*word_count for every
// successful frame.
func TestFrameReaderLengthAccounting(t *testing.T) {
	words := make([]uint32, 5000)
	for i := range words {
		words[i] = uint32(i)
	}
	data := buildJulietFrame(0, 123456789, words)
	r := NewFrameReader(bytes.NewReader(data))

	before := r.BytesRead()
	result := r.Next()
	after := r.BytesRead()

	if result.Status != frame.StatusOK {
		t.Fatalf("expected StatusOK, got %v (%s)", result.Status, result.Reason)
	}
	want := uint64(12 + 4*len(words))
	if after-before != want {
		t.Fatalf("bytes_read delta = %d, want %d", after-before, want)
	}
}

func TestFrameReaderEndOfStream(t *testing.T) {
	r := NewFrameReader(bytes.NewReader(nil))
	if result := r.Next(); !result.IsEnd() {
		t.Fatalf("expected end of stream on empty input, got %v", result.Status)
	}
}

func TestFrameReaderZeroHeaderIsEnd(t *testing.T) {
	hdr := make([]byte, 12)
	r := NewFrameReader(bytes.NewReader(hdr))
	if result := r.Next(); !result.IsEnd() {
		t.Fatalf("expected end of stream on all-zero header, got %v", result.Status)
	}
}

// TestScenarioS1JulietHappyPath matches §8 S1: one frame, header
// (msw=0, lsw=123456789, word_count=5000), sample_count = 5000-7-1.
func TestScenarioS1JulietHappyPath(t *testing.T) {
	words := make([]uint32, 5000)
	// Build a Signal-Data header: packet_type=0b0001, indicators bit26 set
	// (trailer present), stream id at word 1.
	words[0] = 0b0001<<28 | 0b100<<24 | uint32(5000)
	words[1] = 0xAA55AA55

	data := buildJulietFrame(0, 123456789, words)
	r := NewFrameReader(bytes.NewReader(data))
	result := r.Next()
	if result.Status != frame.StatusOK {
		t.Fatalf("expected StatusOK, got %v (%s)", result.Status, result.Reason)
	}

	js := classifier{}
	decoded, err := js.Classify(result.Payload)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decoded.SinkKey != "data" {
		t.Fatalf("SinkKey = %q, want data", decoded.SinkKey)
	}
	samplesI := decoded.Record["samples_i"].([]int16)
	if len(samplesI) != 5000-7-1 {
		t.Fatalf("sample_count = %d, want %d", len(samplesI), 5000-7-1)
	}
}
