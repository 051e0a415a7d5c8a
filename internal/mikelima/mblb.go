package mikelima

// SOM is the Start-of-Message header: 36 little-endian 8-byte words,
// bit-masked per original_source's mblb_SOM (§4.7 MBLB decoders).
type SOM struct {
	Words [36]uint64

	Lane1ID, Lane2ID, Lane3ID uint8
	CINumber                  uint32
	MessageKey                string
	MessageNumber             uint32
	SINumber                  uint8
	PathID, PathWidth         uint8
	SubpathID, SubpathWidth   uint8
	BE, BeamSelect, AFSMode   uint8
	SchedNum, SIinSchedNum    uint8
	HighGain                  bool
	EventStartTimeUs          float64
	BTILength                 float64
	Dwell                     float64
	FreqGHz                   float64
}

func parseSOM(words [36]uint64, messageKey string) SOM {
	s := SOM{Words: words, MessageKey: messageKey}

	s.Lane1ID = uint8(words[0] >> 56)
	s.Lane2ID = uint8(words[1] >> 56)
	s.Lane3ID = uint8(words[2] >> 56)
	s.CINumber = uint32(words[0] & 0xFFFFFFFF)

	s.MessageNumber = uint32(words[3] >> 32)
	s.SINumber = uint8(words[3] & 0xFF)

	w9 := words[9]
	s.PathID = uint8(w9 >> 60)
	s.PathWidth = uint8((w9 >> 56) & 0xF)
	s.SubpathID = uint8((w9 >> 52) & 0xF)
	s.SubpathWidth = uint8((w9 >> 48) & 0xF)
	s.BE = uint8((w9 >> 44) & 0xF)
	s.BeamSelect = uint8((w9 >> 40) & 0xF)
	s.AFSMode = uint8((w9 >> 36) & 0xF)

	w12 := words[12]
	s.SchedNum = uint8(w12 >> 56)
	s.SIinSchedNum = uint8((w12 >> 48) & 0xFF)
	s.HighGain = (w12>>40)&0x1 != 0

	s.EventStartTimeUs = float64(swap32(words[13])) / clocksPerUs

	w14 := words[14]
	s.Dwell = float64(uint32(w14)) / clocksPerUs
	s.BTILength = float64(uint32(w14>>32)) / clocksPerUs

	w15 := words[15]
	ct := uint8(w15 >> 56)
	ft := uint8((w15 >> 48) & 0xFF)
	s.FreqGHz = freqGHz(ct, ft)

	return s
}

// freqGHz replicates mblb.py's coarse/fine tune reassembly (§4.7).
func freqGHz(ct, ft uint8) float64 {
	fineMHz := float64(ft) * 0.625
	ctf := 128 - float64(ct)
	calCT := (ctf + 1) / 3
	coarseMHz := calCT*320*3 - 320
	return (coarseMHz + fineMHz) / 1000
}

// Packet is one 96-byte packet header: 12 words spread over three lanes
// (§4.7 MBLB decoders).
type Packet struct {
	Words [12]uint64

	PacketNumber, ModeTag, CINumber, PacketSize uint32
	DataFmt, EventID, MessageNumber, SubCCINumber uint32
	BTINumber, RF, CAGC, RxBeamID                 uint8
	RxConfig, ChannelizerChan, DBF, RoutingIndex   uint8
	Lane1ID, Lane2ID, Lane3ID                      uint8
	PathID, PathWidth, SubpathID, SubpathWidth     uint8
	DV, RS                                         bool
	ValidChannelsBeams, ChannelsBeamsPerSubpath     uint8
}

func parsePacket(words [12]uint64) Packet {
	p := Packet{Words: words}

	w0 := words[0]
	p.PacketNumber = uint32(w0 >> 32)
	p.CINumber = uint32(w0 & 0xFFFFFFFF)

	w3 := words[3]
	p.ModeTag = uint32(w3 >> 56)
	p.MessageNumber = uint32((w3 >> 32) & 0xFFFFFF)
	p.SubCCINumber = uint32(w3 & 0xFF)
	p.PacketSize = uint32((w3 >> 8) & 0xFFFF)
	p.DataFmt = uint32((w3 >> 24) & 0xFF)
	p.EventID = uint32((w3 >> 48) & 0xFF)

	w6 := words[6]
	p.BTINumber = uint8(w6 >> 56)
	p.RF = uint8((w6 >> 48) & 0xFF)
	p.CAGC = uint8((w6 >> 40) & 0xFF)
	p.RxBeamID = uint8((w6 >> 32) & 0xFF)
	p.RxConfig = uint8((w6 >> 24) & 0xFF)
	p.ChannelizerChan = uint8((w6 >> 16) & 0xFF)
	p.DBF = uint8((w6 >> 8) & 0xFF)
	p.RoutingIndex = uint8(w6 & 0xFF)

	p.Lane1ID = uint8(words[9] >> 56)
	p.Lane2ID = uint8(words[10] >> 56)
	p.Lane3ID = uint8(words[11] >> 56)

	w9 := words[9]
	p.PathID = uint8((w9 >> 52) & 0xF)
	p.PathWidth = uint8((w9 >> 48) & 0xF)
	p.SubpathID = uint8((w9 >> 44) & 0xF)
	p.SubpathWidth = uint8((w9 >> 40) & 0xF)
	p.DV = (w9>>36)&0x1 != 0
	p.RS = (w9>>32)&0x1 != 0
	p.ValidChannelsBeams = uint8((w9 >> 24) & 0xFF)
	p.ChannelsBeamsPerSubpath = uint8((w9 >> 16) & 0xFF)

	return p
}

// EOM is the End-of-Message trailer (§4.7 MBLB decoders).
type EOM struct {
	Words []uint64

	PacketCount, CINumber           uint32
	ErrorStatus, MessageNumber      uint32
	SubCCINumber                    uint32
	CRC                             uint64
	Lane1ID, Lane2ID, Lane3ID       uint8
	PathID, PathWidth               uint8
	SubpathID, SubpathWidth         uint8
}

func parseEOM(words []uint64) EOM {
	e := EOM{Words: words}
	if len(words) < 12 {
		return e
	}
	w0 := words[0]
	e.PacketCount = uint32(w0 >> 32)
	e.CINumber = uint32(w0 & 0xFFFFFFFF)

	w1 := words[1]
	e.ErrorStatus = uint32(w1 >> 56)
	e.MessageNumber = uint32((w1 >> 32) & 0xFFFFFF)
	e.SubCCINumber = uint32(w1 & 0xFF)

	e.CRC = words[2]

	e.Lane1ID = uint8(words[9] >> 56)
	e.Lane2ID = uint8(words[10] >> 56)
	e.Lane3ID = uint8(words[11] >> 56)

	w9 := words[9]
	e.PathID = uint8((w9 >> 52) & 0xF)
	e.PathWidth = uint8((w9 >> 48) & 0xF)
	e.SubpathID = uint8((w9 >> 44) & 0xF)
	e.SubpathWidth = uint8((w9 >> 40) & 0xF)
	return e
}
