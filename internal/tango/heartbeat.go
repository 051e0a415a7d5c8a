package tango

import (
	"fmt"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

// HeartbeatContextSchema is the Tango Heartbeat-Context record's schema:
// four 16-element buffer/stream-id tables plus a system time.
var HeartbeatContextSchema = record.Schema{
	Kind: "heartbeat_context",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "tx_buffer_free", Type: record.KindListUint32},
		{Name: "rx_buffer_free", Type: record.KindListUint32},
		{Name: "tx_stream_id", Type: record.KindListUint32},
		{Name: "rx_stream_id", Type: record.KindListUint32},
		{Name: "system_time", Type: record.KindFloat64, Unit: "s"},
	},
}

// DecodeHeartbeatContext decodes a Tango Heartbeat-Context packet:
// information_class_code=1, packet_class_code=2 shares Context's class
// id but packet_type 0b0101 dispatches it here instead; four 16-entry
// u32 tables at words 7..70, then a double system_time at words 71-72.
func DecodeHeartbeatContext(p vrt.Packet) (record.Record, error) {
	if len(p.Words) < 73 {
		return nil, fmt.Errorf("tango: heartbeat-context payload too short: %d words", len(p.Words))
	}
	txBuf := append([]uint32(nil), p.Words[7:23]...)
	rxBuf := append([]uint32(nil), p.Words[23:39]...)
	txSid := append([]uint32(nil), p.Words[39:55]...)
	rxSid := append([]uint32(nil), p.Words[55:71]...)

	return record.Record{
		"stream_id":      p.StreamID(),
		"tx_buffer_free": txBuf,
		"rx_buffer_free": rxBuf,
		"tx_stream_id":   txSid,
		"rx_stream_id":   rxSid,
		"system_time":    asFloat64Pair(p.Words[71], p.Words[72]),
	}, nil
}
