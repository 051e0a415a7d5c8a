package tango

import (
	"math"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

func TestDecodeHeartbeatContextRejectsShortPayload(t *testing.T) {
	p, err := vrt.NewPacket(make([]uint32, 10))
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	if _, err := DecodeHeartbeatContext(p); err == nil {
		t.Fatal("expected an error for a short heartbeat-context payload")
	}
}

func TestDecodeHeartbeatContextBufferTables(t *testing.T) {
	words := make([]uint32, 73)
	words[1] = 7
	words[7] = 111  // tx_buffer_free[0]
	words[23] = 222 // rx_buffer_free[0]
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeHeartbeatContext(p)
	if err != nil {
		t.Fatalf("DecodeHeartbeatContext: %v", err)
	}
	txBuf := rec["tx_buffer_free"].([]uint32)
	rxBuf := rec["rx_buffer_free"].([]uint32)
	if len(txBuf) != 16 || txBuf[0] != 111 {
		t.Fatalf("tx_buffer_free = %v, want len 16 starting with 111", txBuf)
	}
	if len(rxBuf) != 16 || rxBuf[0] != 222 {
		t.Fatalf("rx_buffer_free = %v, want len 16 starting with 222", rxBuf)
	}
}

func gpsClassIDWords() (w2, w3 uint32) {
	return 0, 0x00030003 // information_class_code=3, packet_class_code=3
}

func TestDecodeGPSContextRejectsWrongClass(t *testing.T) {
	words := make([]uint32, 4+25*25)
	words[2], words[3] = 0x08000001, 0x00010002 // info=1, packet=2: wrong class
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	if _, err := DecodeGPSContext(p); err == nil {
		t.Fatal("expected an error for the wrong information/packet class")
	}
}

func TestDecodeGPSContextAllRecordsPopulated(t *testing.T) {
	words := make([]uint32, 4+25*25)
	words[1] = 99
	w2, w3 := gpsClassIDWords()
	words[2], words[3] = w2, w3
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeGPSContext(p)
	if err != nil {
		t.Fatalf("DecodeGPSContext: %v", err)
	}
	// Every one of the 25 records' 23 fields must be present, including
	// the last record's final field (the off-by-one bounds check must
	// allow exactly 25 full records, neither more nor fewer).
	if _, ok := rec["altitude_std_dev_24"]; !ok {
		t.Fatal("expected altitude_std_dev_24 to be populated")
	}
	if rec["stream_id"] != uint32(99) {
		t.Fatalf("stream_id = %v, want 99", rec["stream_id"])
	}
}

// TestDecodeGPSContextFieldLayout pins down the per-record field
// offsets and types against gps_context_packet.py's layout: a single
// word's two int16 halves for system_status/filter_status, a float32
// bit-reinterpretation (not an int32 cast) for the single-word fields,
// and three independently-valued std-dev words rather than one value
// shared across all three names.
func TestDecodeGPSContextFieldLayout(t *testing.T) {
	words := make([]uint32, 4+25*25)
	w2, w3 := gpsClassIDWords()
	words[2], words[3] = w2, w3

	const off = 4 // record 0's base offset
	words[off] = uint32(uint16(9))<<16 | uint32(uint16(5))
	words[off+9] = math.Float32bits(1.5)   // velocity_0
	words[off+22] = math.Float32bits(0.1)  // latitude_std_dev
	words[off+23] = math.Float32bits(0.2)  // longitude_std_dev
	words[off+24] = math.Float32bits(0.3)  // altitude_std_dev

	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	rec, err := DecodeGPSContext(p)
	if err != nil {
		t.Fatalf("DecodeGPSContext: %v", err)
	}

	if got := rec["system_status_0"]; got != float64(5) {
		t.Fatalf("system_status_0 = %v, want 5", got)
	}
	if got := rec["filter_status_0"]; got != float64(9) {
		t.Fatalf("filter_status_0 = %v, want 9", got)
	}
	if got := rec["velocity_0_0"]; got != float64(float32(1.5)) {
		t.Fatalf("velocity_0_0 = %v, want 1.5", got)
	}
	lat, lon, alt := rec["latitude_std_dev_0"], rec["longitude_std_dev_0"], rec["altitude_std_dev_0"]
	if lat == lon || lon == alt || lat == alt {
		t.Fatalf("expected three distinct std-dev values, got lat=%v lon=%v alt=%v", lat, lon, alt)
	}
	if lat != float64(float32(0.1)) || lon != float64(float32(0.2)) || alt != float64(float32(0.3)) {
		t.Fatalf("std-dev values = lat=%v lon=%v alt=%v, want 0.1/0.2/0.3", lat, lon, alt)
	}
}

func TestDecodeGPSContextRejectsShortPayload(t *testing.T) {
	words := make([]uint32, 4+25*25-1) // one word short of 25 full records
	w2, w3 := gpsClassIDWords()
	words[2], words[3] = w2, w3
	p, err := vrt.NewPacket(words)
	if err != nil {
		t.Fatalf("NewPacket: %v", err)
	}
	if _, err := DecodeGPSContext(p); err == nil {
		t.Fatal("expected an error for a payload one word short of 25 full records")
	}
}
