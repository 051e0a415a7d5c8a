package juliet

import (
	"encoding/binary"
	"testing"
)

// wordsToPayload builds a payload in the post-byteswap little-endian
// word order Classify expects, i.e. the same shape FrameReader.Next()
// hands back (not the on-wire big-endian order).
func wordsToPayload(words []uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf
}

func TestClassifierDispatchesAckR(t *testing.T) {
	words := make([]uint32, 7+15)
	words[0] = 0b0111<<28 | 0b0100<<24 | uint32(len(words))
	words[1] = 5
	payload := wordsToPayload(words)

	decoded, err := classifier{}.Classify(payload)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decoded.SinkKey != "ackr" {
		t.Fatalf("SinkKey = %q, want ackr", decoded.SinkKey)
	}
}

func TestClassifierUnknownPacketType(t *testing.T) {
	words := make([]uint32, 10)
	words[0] = 0b1111 << 28 // an unrecognized packet_type
	payload := wordsToPayload(words)

	decoded, err := classifier{}.Classify(payload)
	if err == nil {
		t.Fatal("expected an error for an unrecognized packet_type")
	}
	if decoded.SinkKey != "unknown_packets" {
		t.Fatalf("SinkKey = %q, want unknown_packets", decoded.SinkKey)
	}
}
