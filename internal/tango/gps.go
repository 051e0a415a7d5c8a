package tango

import (
	"fmt"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

const gpsRecordCount = 25
const gpsRecordWords = 25

// GPSContextSchema is the Tango GPS-Context record's schema: 25
// navigation records, each flattened to its own field-index suffix
// since there is no natural "list of structs" leaf in the columnar
// writer tier.
var GPSContextSchema = func() record.Schema {
	s := record.Schema{Kind: "gps_context"}
	s.Fields = append(s.Fields, record.Field{Name: "stream_id", Type: record.KindUint32})
	names := []string{
		"system_status", "filter_status", "unix_time_seconds", "microseconds",
		"latitude", "longitude", "altitude",
		"velocity_0", "velocity_1", "velocity_2",
		"acceleration_0", "acceleration_1", "acceleration_2",
		"gforce",
		"attitude_0", "attitude_1", "attitude_2",
		"attitude_rate_0", "attitude_rate_1", "attitude_rate_2",
		"latitude_std_dev", "longitude_std_dev", "altitude_std_dev",
	}
	for i := 0; i < gpsRecordCount; i++ {
		for _, n := range names {
			s.Fields = append(s.Fields, record.Field{Name: fmt.Sprintf("%s_%d", n, i), Type: record.KindFloat64})
		}
	}
	return s
}()

// DecodeGPSContext decodes a Tango GPS-Context packet: asserts
// information_class_code=3, packet_class_code=3, then reads 25
// navigation records of 23 fields each at word offset `4 + 25*i` (§4.7).
func DecodeGPSContext(p vrt.Packet) (record.Record, error) {
	cid := p.ClassID()
	if cid.InformationClassCode != 3 || cid.PacketClassCode != 3 {
		return nil, fmt.Errorf("%w: information_class_code=%d packet_class_code=%d", ErrSchemaAssertion, cid.InformationClassCode, cid.PacketClassCode)
	}

	rec := record.Record{"stream_id": p.StreamID()}
	for i := 0; i < gpsRecordCount; i++ {
		off := 4 + gpsRecordWords*i
		if off+gpsRecordWords > len(p.Words) {
			return nil, fmt.Errorf("tango: gps-context record %d overruns payload of %d words", i, len(p.Words))
		}
		// word off+0 packs system_status (low 16 bits) and
		// filter_status (high 16 bits) as a single word's two int16
		// halves (gps_context_packet.py: words[off:off+1].view(int16)).
		rec[fmt.Sprintf("system_status_%d", i)] = float64(int16(p.Words[off]))
		rec[fmt.Sprintf("filter_status_%d", i)] = float64(int16(p.Words[off] >> 16))
		rec[fmt.Sprintf("unix_time_seconds_%d", i)] = float64(p.Words[off+1])
		rec[fmt.Sprintf("microseconds_%d", i)] = float64(p.Words[off+2])
		rec[fmt.Sprintf("latitude_%d", i)] = asFloat64Pair(p.Words[off+3], p.Words[off+4])
		rec[fmt.Sprintf("longitude_%d", i)] = asFloat64Pair(p.Words[off+5], p.Words[off+6])
		rec[fmt.Sprintf("altitude_%d", i)] = asFloat64Pair(p.Words[off+7], p.Words[off+8])
		rec[fmt.Sprintf("velocity_0_%d", i)] = asFloat32(p.Words[off+9])
		rec[fmt.Sprintf("velocity_1_%d", i)] = asFloat32(p.Words[off+10])
		rec[fmt.Sprintf("velocity_2_%d", i)] = asFloat32(p.Words[off+11])
		rec[fmt.Sprintf("acceleration_0_%d", i)] = asFloat32(p.Words[off+12])
		rec[fmt.Sprintf("acceleration_1_%d", i)] = asFloat32(p.Words[off+13])
		rec[fmt.Sprintf("acceleration_2_%d", i)] = asFloat32(p.Words[off+14])
		rec[fmt.Sprintf("gforce_%d", i)] = asFloat32(p.Words[off+15])
		rec[fmt.Sprintf("attitude_0_%d", i)] = asFloat32(p.Words[off+16])
		rec[fmt.Sprintf("attitude_1_%d", i)] = asFloat32(p.Words[off+17])
		rec[fmt.Sprintf("attitude_2_%d", i)] = asFloat32(p.Words[off+18])
		rec[fmt.Sprintf("attitude_rate_0_%d", i)] = asFloat32(p.Words[off+19])
		rec[fmt.Sprintf("attitude_rate_1_%d", i)] = asFloat32(p.Words[off+20])
		rec[fmt.Sprintf("attitude_rate_2_%d", i)] = asFloat32(p.Words[off+21])
		rec[fmt.Sprintf("latitude_std_dev_%d", i)] = asFloat32(p.Words[off+22])
		rec[fmt.Sprintf("longitude_std_dev_%d", i)] = asFloat32(p.Words[off+23])
		rec[fmt.Sprintf("altitude_std_dev_%d", i)] = asFloat32(p.Words[off+24])
	}
	return rec, nil
}
