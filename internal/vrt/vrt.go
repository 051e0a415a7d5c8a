// Package vrt parses the common VITA-49.2 packet prologue shared by every
// Signal-Data, Context, and Extension-Command/AckR packet variant
// (SPEC_FULL.md §4.3). It borrows a slice of little-endian 32-bit words
// from the caller's payload buffer rather than copying into a struct of
// decoded scalars, following the same "borrow a slice, expose typed
// getters" shape as the pack's other VITA-49 reader
// (daveisadork-solid-sdr/apps/bridge/internal/rtc/vita.go's parseVITA).
package vrt

import "fmt"

// Header is the decoded first word of the VRT prologue.
type Header struct {
	PacketType      uint8
	ClassIDPresent  bool
	Indicators      uint8
	TSIMode         uint8
	TSFMode         uint8
	PacketCount     uint8
	PacketSizeWords uint16
}

func DecodeHeader(word uint32) Header {
	return Header{
		PacketType:      uint8(word>>28) & 0xF,
		ClassIDPresent:  (word>>27)&0x1 != 0,
		Indicators:      uint8(word>>24) & 0x7,
		TSIMode:         uint8(word>>22) & 0x3,
		TSFMode:         uint8(word>>20) & 0x3,
		PacketCount:     uint8(word>>16) & 0xF,
		PacketSizeWords: uint16(word & 0xFFFF),
	}
}

// ClassID is the two-word class identifier (SPEC_FULL.md §4.3).
type ClassID struct {
	PadBitCount         uint8
	OUI                 uint32
	InformationClassCode uint16
	PacketClassCode      uint16
	Word0, Word1         uint32
}

func DecodeClassID(word0, word1 uint32) ClassID {
	return ClassID{
		PadBitCount:          uint8(word0 >> 27),
		OUI:                  word0 & 0x00FFFFFF,
		InformationClassCode: uint16(word1 >> 16),
		PacketClassCode:      uint16(word1 & 0xFFFF),
		Word0:                word0,
		Word1:                word1,
	}
}

// Packet is a borrowed view of one VRT packet's word array. Word offsets
// are fixed regardless of presence flags (the original source's
// VRTPacket always reads stream id at word 1, class id at words 2-3, and
// timestamp at words 4-6), so callers needing optional fields check the
// Header flags themselves before trusting those offsets.
type Packet struct {
	Words []uint32
}

// NewPacket wraps payload (words already byte-order-normalized to
// little-endian) as a word-indexed VRT view. At least two words (header
// and stream id) are required; the slice is borrowed, not copied.
func NewPacket(payload []uint32) (Packet, error) {
	if len(payload) < 2 {
		return Packet{}, fmt.Errorf("vrt: payload too short for a header and stream id: %d words", len(payload))
	}
	return Packet{Words: payload}, nil
}

func (p Packet) Header() Header {
	return DecodeHeader(p.Words[0])
}

func (p Packet) StreamID() uint32 {
	return p.Words[1]
}

func (p Packet) ClassID() ClassID {
	if len(p.Words) < 4 {
		return ClassID{}
	}
	return DecodeClassID(p.Words[2], p.Words[3])
}

// IntegerTimestamp and FractionalTimestamp always sit at fixed word offsets
// 4 and 5-6 in this engine's profiles, matching the original source's
// unconditional word[4]/word[5:7] reads.
func (p Packet) IntegerTimestamp() uint32 {
	if len(p.Words) < 5 {
		return 0
	}
	return p.Words[4]
}

func (p Packet) FractionalTimestamp() (tsf0, tsf1 uint32) {
	if len(p.Words) < 7 {
		return 0, 0
	}
	return p.Words[5], p.Words[6]
}
