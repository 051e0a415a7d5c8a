package juliet

import (
	"fmt"

	"github.com/AFMC-MAJCOM/bipconv/internal/bitfield"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

// julianEpochOffset shifts Juliet's custom 2019-01-01T00:00:00Z epoch to
// the Unix epoch (SPEC_FULL.md §4.7, Data-Context decoder).
const julianEpochOffset = 1546300800

// Expected CIF0..CIF4 bitmasks for a well-formed Juliet data-context
// packet (§8 P3); any bit flipped anywhere here is a schema assertion
// failure (§7 item 3), not a framing error.
var expectedCIF = [5]uint32{0x30100000, 0xD3000000, 0x00000180, 0x01C00000, 0x00000000}

// ErrSchemaAssertion is the sentinel wrapped by decoder errors that
// represent a failed structural assertion rather than a framing problem.
var ErrSchemaAssertion = fmt.Errorf("juliet: schema assertion failed")

// SignalDataSchema is the Juliet Signal-Data record's columnar schema.
var SignalDataSchema = record.Schema{
	Kind: "data",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "samples_i", Type: record.KindListInt16},
		{Name: "samples_q", Type: record.KindListInt16},
	},
}

// DecodeSignalData decodes a Juliet Signal-Data packet: trailer_present
// from indicator bit 26, a one-word trailer when present, and
// `sample_count = payload_size - 7 - trailer_size` interleaved I/Q
// samples starting at word offset 7 (§4.7).
func DecodeSignalData(p vrt.Packet) (record.Record, error) {
	h := p.Header()
	trailerWords := 0
	if h.Indicators&0x4 != 0 {
		trailerWords = 1
	}
	sampleCount := int(h.PacketSizeWords) - 7 - trailerWords
	if sampleCount < 0 || 7+sampleCount > len(p.Words) {
		return nil, fmt.Errorf("juliet: signal-data sample_count %d overruns payload of %d words", sampleCount, len(p.Words))
	}

	is := make([]int16, sampleCount)
	qs := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		word := p.Words[7+i]
		is[i] = int16(word >> 16)
		qs[i] = int16(word & 0xFFFF)
	}

	return record.Record{
		"stream_id": p.StreamID(),
		"samples_i": is,
		"samples_q": qs,
	}, nil
}

// DataContextSchema is the Juliet Data-Context record's columnar schema.
var DataContextSchema = record.Schema{
	Kind: "context_data",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "time", Type: record.KindFloat64},
		{Name: "bandwidth", Type: record.KindUint32, Unit: "MHz"},
		{Name: "frequency", Type: record.KindFloat64, Unit: "GHz"},
		{Name: "rf_frequency_offset", Type: record.KindUint32, Unit: "MHz"},
		{Name: "gain", Type: record.KindFloat64, Unit: "dB"},
		{Name: "sample_rate", Type: record.KindUint32, Unit: "MSps"},
		{Name: "data_formats", Type: record.KindUint32},
		{Name: "polarization", Type: record.KindUint32},
		{Name: "azimuth", Type: record.KindFloat64, Unit: "deg"},
		{Name: "elevation", Type: record.KindFloat64, Unit: "deg"},
		{Name: "beam_width", Type: record.KindFloat64, Unit: "deg"},
		{Name: "cited_sid", Type: record.KindUint32},
		{Name: "function_priority_id", Type: record.KindUint32},
		{Name: "dwell", Type: record.KindFloat64, Unit: "us"},
		{Name: "requested_input", Type: record.KindUint32},
		{Name: "reject_reason", Type: record.KindUint32},
		{Name: "data_addr_index", Type: record.KindUint32},
		{Name: "tx_digital_input_power", Type: record.KindFloat64},
	},
}

// DecodeDataContext decodes a Juliet Data-Context packet. CIF0..CIF4 at
// words 7-11 are checked against expectedCIF before any of words 12..33
// are trusted; a mismatch is a schema assertion failure, not a framing
// error, per §7 item 3.
func DecodeDataContext(p vrt.Packet) (record.Record, error) {
	if len(p.Words) < 34 {
		return nil, fmt.Errorf("juliet: data-context payload too short: %d words", len(p.Words))
	}
	for i, want := range expectedCIF {
		if got := p.Words[7+i]; got != want {
			return nil, fmt.Errorf("%w: CIF%d = %#08x, want %#08x", ErrSchemaAssertion, i, got, want)
		}
	}

	tsi := p.IntegerTimestamp()
	tsf0, tsf1 := p.FractionalTimestamp()
	t := bitfield.Time(tsi, tsf0, tsf1) + julianEpochOffset

	az, el := bitfield.Pointing(p.Words[21])

	return record.Record{
		"stream_id":              p.StreamID(),
		"time":                   t,
		"bandwidth":              bitfield.Bandwidth(p.Words[12], p.Words[13]),
		"frequency":              bitfield.Frequency(p.Words[14], p.Words[15]),
		"rf_frequency_offset":    bitfield.Offset(p.Words[16], p.Words[17]),
		"gain":                   float64(int32(p.Words[18])) / 128.0,
		"sample_rate":            bitfield.SampleRate(p.Words[19], p.Words[20]),
		"data_formats":           p.Words[22],
		"polarization":           p.Words[23],
		"azimuth":                az,
		"elevation":              el,
		"beam_width":             float64(p.Words[24]) / 128.0,
		"cited_sid":              p.Words[25],
		"function_priority_id":   p.Words[26],
		"dwell":                  bitfield.Dwell(p.Words[27], p.Words[28]),
		"requested_input":        p.Words[29],
		"reject_reason":          p.Words[30],
		"data_addr_index":        p.Words[31],
		"tx_digital_input_power": float64(int32(p.Words[32])) / 128.0,
	}, nil
}

// ExtensionCommandSchema is the Juliet Extension-Command record's schema.
// The packet shares Data-Context's field layout but without the
// Juliet-epoch offset applied to its timestamp (§4.7).
var ExtensionCommandSchema = record.Schema{
	Kind:   "extension_command",
	Fields: DataContextSchema.Fields,
}

// DecodeExtensionCommand decodes a Juliet Extension-Command packet:
// identical field layout to Data-Context, but the timestamp is reported
// without the 2019-01-01 epoch shift.
func DecodeExtensionCommand(p vrt.Packet) (record.Record, error) {
	rec, err := DecodeDataContext(p)
	if err != nil {
		return nil, err
	}
	rec["time"] = rec["time"].(float64) - julianEpochOffset
	return rec, nil
}

// AckRSchema is the Juliet AckR record's schema: a fixed 15-word payload
// reported as raw words, since the acknowledgement's field meanings are
// opaque to this engine beyond "did the command complete".
var AckRSchema = record.Schema{
	Kind: "ackr",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "payload_words", Type: record.KindListUint32},
	},
}

// DecodeAckR decodes a Juliet AckR packet: indicators `0b0100` and at
// least 15 payload words after the prologue; the first 15 are kept and
// any further words are ignored.
func DecodeAckR(p vrt.Packet) (record.Record, error) {
	const wantWords = 15
	if len(p.Words) < 7+wantWords {
		return nil, fmt.Errorf("juliet: ackr payload has %d words, want at least %d", len(p.Words)-7, wantWords)
	}
	words := make([]uint32, wantWords)
	copy(words, p.Words[7:7+wantWords])
	return record.Record{
		"stream_id":     p.StreamID(),
		"payload_words": words,
	}, nil
}
