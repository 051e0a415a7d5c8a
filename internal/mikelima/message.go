package mikelima

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Message is one fully-read MBLB message: its Start-of-Message header,
// the Packet blocks it carried, and its End-of-Message trailer. A
// message whose stream ended mid-read gets a zeroed EOM and is flagged
// Truncated, matching §4.6's "short read/EOF mid-message" recovery.
type Message struct {
	SOM       SOM
	Packets   []Packet
	PacketIQ  [][]int16 // interleaved I/Q samples per packet, same index as Packets
	EOM       EOM
	Truncated bool
	IsIQ5     bool
}

// OrphanPacket is a Packet block observed before the stream's first SOM
// (§4.6), with no enclosing message to attach it to.
type OrphanPacket struct {
	Packet Packet
}

// Reader scans an MBLB stream for SOM/SOP/EOM triples and assembles
// Messages, following plugins/mikelima/parser.py's read_message and
// header.py's read_first_header/read_message_header state machines.
type Reader struct {
	r             io.Reader
	bytesRead     uint64
	messagesRead  int
	packetsRead   int
	orphanPackets []OrphanPacket
	discovered    bool
	isIQ5         bool // selects EOM trailer length (21 vs 22 words) and beam count (3 vs 2)
}

func NewReader(r io.Reader, isIQ5 bool) *Reader {
	return &Reader{r: r, isIQ5: isIQ5}
}

func (mr *Reader) BytesRead() uint64    { return mr.bytesRead }
func (mr *Reader) MessagesRead() int    { return mr.messagesRead }
func (mr *Reader) PacketsRead() int     { return mr.packetsRead }
func (mr *Reader) OrphanPackets() []OrphanPacket { return mr.orphanPackets }

func (mr *Reader) readWord() (uint64, bool) {
	var buf [8]byte
	n, err := io.ReadFull(mr.r, buf[:])
	mr.bytesRead += uint64(n)
	if err != nil {
		return 0, false
	}
	return word64(buf[:]), true
}

func (mr *Reader) readWords(n int) ([]uint64, bool) {
	words := make([]uint64, n)
	for i := 0; i < n; i++ {
		w, ok := mr.readWord()
		if !ok {
			return words[:i], false
		}
		words[i] = w
	}
	return words, true
}

// discoverFirstSOM scans for the first SOM marker triple, collecting any
// SOP-marked Packet blocks seen beforehand as orphans (§4.6, read_first_header).
func (mr *Reader) discoverFirstSOM() bool {
	for {
		w, ok := mr.readWord()
		if !ok {
			return false
		}
		switch w {
		case markerSOM:
			if !mr.expectMarkerPair(markerSOM) {
				return false
			}
			return true
		case markerSOP:
			if !mr.expectMarkerPair(markerSOP) {
				return false
			}
			words, ok := mr.readWords(12)
			if !ok {
				return false
			}
			mr.orphanPackets = append(mr.orphanPackets, OrphanPacket{Packet: parsePacket([12]uint64(words))})
		}
	}
}

// expectMarkerPair consumes the two remaining repeats of a 24-byte
// marker triple after the first copy has already been read.
func (mr *Reader) expectMarkerPair(want uint64) bool {
	for i := 0; i < 2; i++ {
		w, ok := mr.readWord()
		if !ok || w != want {
			return false
		}
	}
	return true
}

// Next reads the next MBLB message. It returns (msg, true) on success,
// (zero, false) at clean end of stream.
func (mr *Reader) Next() (Message, bool) {
	if !mr.discovered {
		mr.discovered = true
		if !mr.discoverFirstSOM() {
			return Message{}, false
		}
	} else if !mr.scanToNextSOM() {
		return Message{}, false
	}

	somWords, ok := mr.readWords(36)
	if !ok {
		return Message{}, false
	}
	msg := Message{SOM: parseSOM([36]uint64(somWords), messageKeyFor(mr.messagesRead)), IsIQ5: mr.isIQ5}

	for {
		w, ok := mr.readWord()
		if !ok {
			msg.Truncated = true
			mr.messagesRead++
			return msg, true
		}
		switch {
		case w == markerSOP:
			if !mr.expectMarkerPair(markerSOP) {
				msg.Truncated = true
				mr.messagesRead++
				return msg, true
			}
			hdrWords, ok := mr.readWords(12)
			if !ok {
				msg.Truncated = true
				mr.messagesRead++
				return msg, true
			}
			pkt := parsePacket([12]uint64(hdrWords))
			iq, ok := mr.readSamplePayload(msg.SOM, pkt.RxConfig, mr.isIQ5)
			if !ok {
				msg.Truncated = true
				mr.messagesRead++
				return msg, true
			}
			msg.Packets = append(msg.Packets, pkt)
			msg.PacketIQ = append(msg.PacketIQ, iq)
			mr.packetsRead++

		case w == markerEOM:
			if !mr.expectMarkerPair(markerEOM) {
				msg.Truncated = true
				mr.messagesRead++
				return msg, true
			}
			trailerLen := 22
			if mr.isIQ5 {
				trailerLen = 21
			}
			eomWords, ok := mr.readWords(trailerLen)
			if !ok {
				msg.Truncated = true
				mr.messagesRead++
				return msg, true
			}
			msg.EOM = parseEOM(eomWords)
			mr.messagesRead++
			return msg, true

		case unhandledMarkers[w]:
			msg.Truncated = true
			mr.messagesRead++
			return msg, true

		default:
			// Keep scanning; not a recognized marker at this position.
		}
	}
}

func (mr *Reader) scanToNextSOM() bool {
	for {
		w, ok := mr.readWord()
		if !ok {
			return false
		}
		if w == markerSOM {
			return mr.expectMarkerPair(markerSOM)
		}
	}
}

// readSamplePayload consumes `4 * dwell * (1280 / 2^rx_config) *
// beam_count` bytes of interleaved I/Q data (§4.6), beam_count 2 for IQ0
// and 3 for IQ5.
func (mr *Reader) readSamplePayload(som SOM, rxConfig uint8, isIQ5 bool) ([]int16, bool) {
	beamCount := 2
	if isIQ5 {
		beamCount = 3
	}
	samplesPerBeam := 1280 >> uint(rxConfig)
	byteLen := 4 * int(som.Dwell) * samplesPerBeam * beamCount
	if byteLen <= 0 {
		return nil, true
	}
	buf := make([]byte, byteLen)
	n, err := io.ReadFull(mr.r, buf)
	mr.bytesRead += uint64(n)
	if err != nil {
		return nil, false
	}
	samples := make([]int16, byteLen/2)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return samples, true
}

func messageKeyFor(index int) string {
	return fmt.Sprintf("msg-%d", index)
}
