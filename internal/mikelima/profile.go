package mikelima

import (
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

func init() {
	profile.Register(profile.Descriptor{
		Name:      "mikelima",
		Composite: runner{isIQ5: false},
		Schemas: map[string]record.Schema{
			"message_content":    MessageContentSchema,
			"iq0_packet_content": PacketContentSchema("iq0_packet_content"),
		},
	})
	profile.Register(profile.Descriptor{
		Name:      "mikelima-iq5",
		Composite: runner{isIQ5: true},
		Schemas: map[string]record.Schema{
			"message_content":    MessageContentSchema,
			"iq5_packet_content": PacketContentSchema("iq5_packet_content"),
		},
	})
}

// MessageContentSchema merges SOM and EOM fields into one 26-field row,
// modeled on plugins/mikelima/parser.py's __add_record (§4.7).
var MessageContentSchema = record.Schema{
	Kind: "message_content",
	Fields: []record.Field{
		{Name: "message_key", Type: record.KindString},
		{Name: "lane1_id", Type: record.KindUint8},
		{Name: "lane2_id", Type: record.KindUint8},
		{Name: "lane3_id", Type: record.KindUint8},
		{Name: "ci_number", Type: record.KindUint32},
		{Name: "message_number", Type: record.KindUint32},
		{Name: "si_number", Type: record.KindUint8},
		{Name: "path_id", Type: record.KindUint8},
		{Name: "path_width", Type: record.KindUint8},
		{Name: "subpath_id", Type: record.KindUint8},
		{Name: "subpath_width", Type: record.KindUint8},
		{Name: "be", Type: record.KindUint8},
		{Name: "beam_select", Type: record.KindUint8},
		{Name: "afs_mode", Type: record.KindUint8},
		{Name: "sched_num", Type: record.KindUint8},
		{Name: "si_in_sched_num", Type: record.KindUint8},
		{Name: "high_gain", Type: record.KindUint8},
		{Name: "event_start_time_us", Type: record.KindFloat64, Unit: "us"},
		{Name: "time_since_epoch_us", Type: record.KindFloat64, Unit: "us"},
		{Name: "bti_length", Type: record.KindFloat64, Unit: "us"},
		{Name: "dwell", Type: record.KindFloat64, Unit: "us"},
		{Name: "freq_ghz", Type: record.KindFloat64, Unit: "GHz"},
		{Name: "packet_count", Type: record.KindUint32},
		{Name: "error_status", Type: record.KindUint32},
		{Name: "crc", Type: record.KindUint64},
		{Name: "truncated", Type: record.KindUint8},
	},
}

// PacketContentSchema is the per-packet columnar schema shared by IQ0
// and IQ5 variants, differing only in the sink key it's routed to
// (beam_count, carried in the samples themselves, is the only IQ0/IQ5
// distinction at decode time per §4.6).
func PacketContentSchema(kind string) record.Schema {
	return record.Schema{
		Kind: kind,
		Fields: []record.Field{
			{Name: "message_key", Type: record.KindString},
			{Name: "packet_number", Type: record.KindUint32},
			{Name: "ci_number", Type: record.KindUint32},
			{Name: "packet_size", Type: record.KindUint32},
			{Name: "data_fmt", Type: record.KindUint32},
			{Name: "event_id", Type: record.KindUint32},
			{Name: "rf", Type: record.KindUint8},
			{Name: "rx_beam_id", Type: record.KindUint8},
			{Name: "rx_config", Type: record.KindUint8},
			{Name: "channelizer_chan", Type: record.KindUint8},
			{Name: "samples", Type: record.KindListInt16},
		},
	}
}

// runner is the CompositeRunner for one MikeLima byte stream.
type runner struct {
	isIQ5 bool
}

func (rn runner) Run(r io.ReadSeeker, _ profile.Options, emit profile.EmitFunc) error {
	mr := NewReader(r, rn.isIQ5)
	packetKey := "iq0_packet_content"
	if rn.isIQ5 {
		packetKey = "iq5_packet_content"
	}

	for {
		msg, ok := mr.Next()
		if !ok {
			break
		}
		if err := emit("message_content", messageRecord(msg)); err != nil {
			return fmt.Errorf("mikelima: emit message_content: %w", err)
		}
		for i, pkt := range msg.Packets {
			if err := emit(packetKey, packetRecord(msg.SOM.MessageKey, pkt, msg.PacketIQ[i])); err != nil {
				return fmt.Errorf("mikelima: emit %s: %w", packetKey, err)
			}
		}
	}
	return nil
}

func messageRecord(m Message) record.Record {
	truncated := uint8(0)
	if m.Truncated {
		truncated = 1
	}
	return record.Record{
		"message_key":         m.SOM.MessageKey,
		"lane1_id":            m.SOM.Lane1ID,
		"lane2_id":            m.SOM.Lane2ID,
		"lane3_id":            m.SOM.Lane3ID,
		"ci_number":           m.SOM.CINumber,
		"message_number":      m.SOM.MessageNumber,
		"si_number":           m.SOM.SINumber,
		"path_id":             m.SOM.PathID,
		"path_width":          m.SOM.PathWidth,
		"subpath_id":          m.SOM.SubpathID,
		"subpath_width":       m.SOM.SubpathWidth,
		"be":                  m.SOM.BE,
		"beam_select":         m.SOM.BeamSelect,
		"afs_mode":            m.SOM.AFSMode,
		"sched_num":           m.SOM.SchedNum,
		"si_in_sched_num":     m.SOM.SIinSchedNum,
		"high_gain":           boolToUint8(m.SOM.HighGain),
		"event_start_time_us": m.SOM.EventStartTimeUs,
		"time_since_epoch_us": m.SOM.EventStartTimeUs, // same value as event_start_time_us; no capture-file timestamp is added
		"bti_length":          m.SOM.BTILength,
		"dwell":               m.SOM.Dwell,
		"freq_ghz":            m.SOM.FreqGHz,
		"packet_count":        m.EOM.PacketCount,
		"error_status":        m.EOM.ErrorStatus,
		"crc":                 m.EOM.CRC,
		"truncated":           truncated,
	}
}

func packetRecord(messageKey string, p Packet, samples []int16) record.Record {
	return record.Record{
		"message_key":      messageKey,
		"packet_number":    p.PacketNumber,
		"ci_number":        p.CINumber,
		"packet_size":      p.PacketSize,
		"data_fmt":         p.DataFmt,
		"event_id":         p.EventID,
		"rf":               p.RF,
		"rx_beam_id":       p.RxBeamID,
		"rx_config":        p.RxConfig,
		"channelizer_chan": p.ChannelizerChan,
		"samples":          samples,
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
