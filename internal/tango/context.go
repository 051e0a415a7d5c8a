package tango

import (
	"fmt"

	"github.com/AFMC-MAJCOM/bipconv/internal/bitfield"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

// ErrSchemaAssertion mirrors juliet's sentinel for a failed structural
// assertion (bad CIF constants, wrong information/packet class) as
// distinct from a framing error.
var ErrSchemaAssertion = fmt.Errorf("tango: schema assertion failed")

// Expected CIF0..CIF4 constants for a Tango Context packet.
var expectedContextCIF = [5]uint32{0xBBF98000, 0x00000000, 0x00000000, 0x00000000, 0x00000000}

// ContextSchema is the Tango Context record's columnar schema.
var ContextSchema = record.Schema{
	Kind: "context",
	Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "bandwidth", Type: record.KindUint32, Unit: "MHz"},
		{Name: "if_reference_frequency", Type: record.KindFloat64, Unit: "GHz"},
		{Name: "rf_reference_frequency", Type: record.KindFloat64, Unit: "GHz"},
		{Name: "gain1", Type: record.KindFloat64, Unit: "dB"},
		{Name: "gain2", Type: record.KindFloat64, Unit: "dB"},
		{Name: "sample_rate", Type: record.KindUint32, Unit: "MSps"},
		{Name: "temperature", Type: record.KindFloat64, Unit: "C"},
		{Name: "phase_offset", Type: record.KindFloat64, Unit: "deg"},
		{Name: "ellipticity", Type: record.KindFloat64},
		{Name: "tilt", Type: record.KindFloat64},
		{Name: "array_size", Type: record.KindUint32},
		{Name: "header_size", Type: record.KindUint8},
		{Name: "num_words_per_rec", Type: record.KindUint16},
		{Name: "num_records", Type: record.KindUint16},
		{Name: "ecef_0", Type: record.KindFloat64},
		{Name: "ecef_1", Type: record.KindFloat64},
		{Name: "ecef_2", Type: record.KindFloat64},
		{Name: "azimuth_0", Type: record.KindFloat64, Unit: "deg"},
		{Name: "elevation_0", Type: record.KindFloat64, Unit: "deg"},
		{Name: "steering_mode_0", Type: record.KindUint32},
		{Name: "beam_width_vert", Type: record.KindFloat64, Unit: "deg"},
		{Name: "beam_width_horiz", Type: record.KindFloat64, Unit: "deg"},
		{Name: "range", Type: record.KindFloat64},
		{Name: "health_status", Type: record.KindUint32},
		{Name: "mode_id", Type: record.KindUint32},
		{Name: "event_id", Type: record.KindUint32},
		{Name: "pulse_width", Type: record.KindFloat64, Unit: "s"},
		{Name: "pri", Type: record.KindFloat64, Unit: "s"},
		{Name: "duration", Type: record.KindFloat64, Unit: "s"},
	},
}

// DecodeContext decodes a Tango Context packet (§4.7). Asserts
// information_class_code=1, packet_class_code=2, tsi=0b10, tsf=0b10, and
// CIF0..CIF4 against fixed bitmasks before trusting the rest of the
// payload.
func DecodeContext(p vrt.Packet) (record.Record, error) {
	h := p.Header()
	cid := p.ClassID()
	if cid.InformationClassCode != 1 || cid.PacketClassCode != 2 {
		return nil, fmt.Errorf("%w: information_class_code=%d packet_class_code=%d", ErrSchemaAssertion, cid.InformationClassCode, cid.PacketClassCode)
	}
	if h.TSIMode != 0b10 || h.TSFMode != 0b10 {
		return nil, fmt.Errorf("%w: tsi=%02b tsf=%02b", ErrSchemaAssertion, h.TSIMode, h.TSFMode)
	}
	if len(p.Words) < 46 {
		return nil, fmt.Errorf("tango: context payload too short: %d words", len(p.Words))
	}
	for i, want := range expectedContextCIF {
		if got := p.Words[7+i]; got != want {
			return nil, fmt.Errorf("%w: CIF%d = %#08x, want %#08x", ErrSchemaAssertion, i, got, want)
		}
	}

	word24 := p.Words[24]
	headerSize := uint8(word24 >> 24)
	numWordsPerRec := uint16(word24>>12) & 0xFFF
	numRecords := uint16(word24) & 0xFFF

	azWord := p.Words[31]
	az, el := bitfield.Pointing(azWord)

	bw := p.Words[35]
	beamVert := float64(uint16(bw>>16)) / 128.0
	beamHoriz := float64(uint16(bw&0xFFFF)) / 128.0

	return record.Record{
		"stream_id":              p.StreamID(),
		"bandwidth":              bitfield.Bandwidth(p.Words[12], p.Words[13]),
		"if_reference_frequency": bitfield.Frequency(p.Words[14], p.Words[15]),
		"rf_reference_frequency": bitfield.Frequency(p.Words[16], p.Words[17]),
		"gain1":                  float64(int16(p.Words[18]>>16)) / 128.0,
		"gain2":                  float64(int16(p.Words[18]&0xFFFF)) / 128.0,
		"sample_rate":            bitfield.SampleRate(p.Words[19], p.Words[20]),
		"temperature":            float64(int16(p.Words[21]>>16)) / 64.0,
		"phase_offset":           float64(int16(p.Words[21]&0xFFFF)) / 128.0,
		"ellipticity":            float64(int16(p.Words[22]>>16)) / 8192.0,
		"tilt":                   float64(int16(p.Words[22]&0xFFFF)) / 8192.0,
		"array_size":             p.Words[23],
		"header_size":            headerSize,
		"num_words_per_rec":      numWordsPerRec,
		"num_records":            numRecords,
		"ecef_0":                 asFloat64Pair(p.Words[25], p.Words[26]),
		"ecef_1":                 asFloat64Pair(p.Words[27], p.Words[28]),
		"ecef_2":                 asFloat64Pair(p.Words[29], p.Words[30]),
		"azimuth_0":              az,
		"elevation_0":            el,
		"steering_mode_0":        p.Words[32],
		"beam_width_vert":        beamVert,
		"beam_width_horiz":       beamHoriz,
		"range":                  float64(p.Words[36]) / 64.0,
		"health_status":          p.Words[37],
		"mode_id":                p.Words[38],
		"event_id":               p.Words[39],
		"pulse_width":            bitfield.FractionalTime(p.Words[40], p.Words[41]),
		"pri":                    bitfield.FractionalTime(p.Words[42], p.Words[43]),
		"duration":               bitfield.FractionalTime(p.Words[44], p.Words[45]),
	}, nil
}

// asFloat64Pair reassembles two consecutive 32-bit words into an
// IEEE-754 double the way words[i:i+2].view(numpy.float64) does: the
// earlier word (lo) holds the low 32 bits, the later word (hi) the high
// 32 bits. Used for ECEF coordinates, heartbeat system_time, and GPS
// latitude/longitude/altitude.
func asFloat64Pair(lo, hi uint32) float64 {
	bits := uint64(hi)<<32 | uint64(lo)
	return float64frombits(bits)
}
