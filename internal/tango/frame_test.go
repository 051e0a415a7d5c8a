package tango

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
)

// buildTangoFrame assembles one VRLP...VEND frame: header word encodes
// frame_size = len(payloadWords)+2 (header word + trailer word), per
// §4.5's frame_size accounting.
func buildTangoFrame(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Write(markerVRLP)
	frameSize := uint32(len(payload)/4) + 2
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], frameSize)
	buf.Write(hdr[:])
	buf.Write(payload)
	buf.Write(markerVEND)
	return buf.Bytes()
}

func TestTangoFrameReaderHappyPath(t *testing.T) {
	payload := make([]byte, 40)
	for i := range payload {
		payload[i] = byte(i)
	}
	data := buildTangoFrame(payload)

	r := NewFrameReader(bytes.NewReader(data), false)
	result := r.Next()
	if result.Status != frame.StatusOK {
		t.Fatalf("expected StatusOK, got %v (%s)", result.Status, result.Reason)
	}
	if !bytes.Equal(result.Payload, payload) {
		t.Fatalf("payload mismatch: got %v want %v", result.Payload, payload)
	}
}

// TestTangoFrameReaderResync is property P5: junk bytes before a valid
// VRLP marker are skipped, and the frame after them is still read
// correctly.
func TestTangoFrameReaderResync(t *testing.T) {
	payload := make([]byte, 16)
	frameData := buildTangoFrame(payload)
	junk := []byte{0x01, 0x02, 0x03, 'V', 'R', 'L', 0xFF}
	data := append(junk, frameData...)

	r := NewFrameReader(bytes.NewReader(data), false)
	result := r.Next()
	if result.Status != frame.StatusOK {
		t.Fatalf("expected StatusOK after resync, got %v (%s)", result.Status, result.Reason)
	}
	if !bytes.Equal(result.Payload, payload) {
		t.Fatalf("payload mismatch after resync: got %v want %v", result.Payload, payload)
	}
}

// TestTangoFrameReaderDNEVMismatch: a frame_size overstating the true
// payload length by one word, so the DNEV marker falls inside the
// declared payload and the trailer read hits end of stream; the reader
// must report the frame as corrupt.
func TestTangoFrameReaderDNEVMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(markerVRLP)
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], 2+2) // claims 2 payload words, but only 1 exists
	buf.Write(hdr[:])
	buf.Write([]byte{0, 0, 0, 0})
	buf.Write(markerDNEV)

	r := NewFrameReader(bytes.NewReader(buf.Bytes()), false)
	result := r.Next()
	if !result.IsCorrupt() {
		t.Fatalf("expected corrupt status, got %v", result.Status)
	}
}

// TestTangoFrameReaderDeadbeefClean is property P6: aligned DEADBEEF
// filler words are excised and replaced by reading further words from
// the stream so bytes_read still balances against frame_size.
func TestTangoFrameReaderDeadbeefClean(t *testing.T) {
	payload := []byte{
		0x01, 0x02, 0x03, 0x04,
		0xDE, 0xAD, 0xBE, 0xEF,
		0x05, 0x06, 0x07, 0x08,
	}
	replacement := []byte{0x09, 0x0A, 0x0B, 0x0C}

	var buf bytes.Buffer
	buf.Write(markerVRLP)
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)/4)+2)
	buf.Write(hdr[:])
	buf.Write(payload)
	buf.Write(markerVEND)
	buf.Write(replacement) // extra word pulled in to replace the excised filler

	r := NewFrameReader(bytes.NewReader(buf.Bytes()), true)
	result := r.Next()
	if result.Status != frame.StatusOK {
		t.Fatalf("expected StatusOK, got %v (%s)", result.Status, result.Reason)
	}
	want := append(append([]byte{}, payload[0:4]...), append(payload[8:12], replacement...)...)
	if !bytes.Equal(result.Payload, want) {
		t.Fatalf("cleaned payload = %v, want %v", result.Payload, want)
	}
}
