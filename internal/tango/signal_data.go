package tango

import (
	"fmt"

	"github.com/AFMC-MAJCOM/bipconv/internal/bitfield"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

// SignalDataSchema is the Tango Signal-Data record's columnar schema.
var SignalDataSchema = record.Schema{
	Kind: "data",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "time", Type: record.KindFloat64, Unit: "s"},
		{Name: "samples_i", Type: record.KindListInt16},
		{Name: "samples_q", Type: record.KindListInt16},
	},
}

// DecodeSignalData decodes a Tango Signal-Data packet: a 2-word trailer
// when indicator bit 26 is set, else none, and interleaved I/Q samples
// from word offset 7 (§4.7). The packet's timestamp uses the same
// tsi/tsf0/tsf1 reassembly as bitfield.Time; the standalone "swap tsf1
// left" variant seen in one upstream decoder is treated as a defect, not
// a second valid order.
func DecodeSignalData(p vrt.Packet) (record.Record, error) {
	h := p.Header()
	trailerWords := 0
	if h.Indicators&0x4 != 0 {
		trailerWords = 2
	}
	sampleCount := int(h.PacketSizeWords) - 7 - trailerWords
	if sampleCount < 0 || 7+sampleCount > len(p.Words) {
		return nil, fmt.Errorf("tango: signal-data sample_count %d overruns payload of %d words", sampleCount, len(p.Words))
	}

	is := make([]int16, sampleCount)
	qs := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		word := p.Words[7+i]
		is[i] = int16(word >> 16)
		qs[i] = int16(word & 0xFFFF)
	}

	tsi := p.IntegerTimestamp()
	tsf0, tsf1 := p.FractionalTimestamp()

	return record.Record{
		"stream_id": p.StreamID(),
		"time":      bitfield.Time(tsi, tsf0, tsf1),
		"samples_i": is,
		"samples_q": qs,
	}, nil
}
