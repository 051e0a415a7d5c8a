package tango

import (
	"encoding/binary"
	"testing"
)

func tangoWordsToPayload(words []uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf
}

func TestClassifierDispatchesHeartbeatVsGPS(t *testing.T) {
	heartbeat := make([]uint32, 73)
	heartbeat[0] = 0b0101 << 28
	heartbeat[3] = 0x00010002 // info=1, packet=2

	gps := make([]uint32, 4+25*25)
	gps[0] = 0b0101 << 28
	gps[3] = 0x00030003 // info=3, packet=3

	hbDecoded, err := classifier{}.Classify(tangoWordsToPayload(heartbeat))
	if err != nil {
		t.Fatalf("Classify(heartbeat): %v", err)
	}
	if hbDecoded.SinkKey != "heartbeat_context" {
		t.Fatalf("SinkKey = %q, want heartbeat_context", hbDecoded.SinkKey)
	}

	gpsDecoded, err := classifier{}.Classify(tangoWordsToPayload(gps))
	if err != nil {
		t.Fatalf("Classify(gps): %v", err)
	}
	if gpsDecoded.SinkKey != "gps_context" {
		t.Fatalf("SinkKey = %q, want gps_context", gpsDecoded.SinkKey)
	}
}

func TestClassifierUnknownPacketType(t *testing.T) {
	words := make([]uint32, 10)
	words[0] = 0b1111 << 28
	decoded, err := classifier{}.Classify(tangoWordsToPayload(words))
	if err == nil {
		t.Fatal("expected an error for an unrecognized packet_type")
	}
	if decoded.SinkKey != "unknown_packets" {
		t.Fatalf("SinkKey = %q, want unknown_packets", decoded.SinkKey)
	}
}
