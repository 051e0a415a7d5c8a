// Package juliet implements the Juliet profile: a 12-byte little-endian
// frame header wrapping a big-endian VRT payload (SPEC_FULL.md §4.4),
// and its Signal-Data / Data-Context / Extension-Command / AckR packet
// decoders (§4.7). Grounded on original_source/src/bip/plugins/juliet's
// frame.py and *_packet.py, in the reading style of the pack's other
// length-prefixed frame loops (internal/memorystore's line-protocol
// scanner: read a fixed header, then read exactly the body it declares).
package juliet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
)

// FrameHeader is the fixed 12-byte Juliet frame header.
type FrameHeader struct {
	TimeMSW   uint32
	TimeLSW   uint32
	WordCount uint32
}

// FrameReader reads successive Juliet frames from a seekable stream.
type FrameReader struct {
	r         io.Reader
	bytesRead uint64
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

func (fr *FrameReader) BytesRead() uint64 { return fr.bytesRead }

// Next reads one Juliet frame: a 12-byte header, then 4*word_count bytes
// of big-endian VRT payload, byte-swapped in place to little-endian
// words before being handed back.
func (fr *FrameReader) Next() frame.Result {
	var hdr [12]byte
	n, err := io.ReadFull(fr.r, hdr[:])
	if n == 0 && err != nil {
		return frame.End()
	}
	if err != nil {
		return frame.Corrupt(fmt.Sprintf("short read on frame header: got %d of 12 bytes", n))
	}

	h := FrameHeader{
		TimeMSW:   binary.LittleEndian.Uint32(hdr[0:4]),
		TimeLSW:   binary.LittleEndian.Uint32(hdr[4:8]),
		WordCount: binary.LittleEndian.Uint32(hdr[8:12]),
	}
	fr.bytesRead += 12

	if h.TimeMSW == 0 && h.TimeLSW == 0 && h.WordCount == 0 {
		return frame.End()
	}

	payloadBytes := make([]byte, 4*int(h.WordCount))
	pn, err := io.ReadFull(fr.r, payloadBytes)
	fr.bytesRead += uint64(pn)
	if err != nil {
		return frame.Corrupt(fmt.Sprintf("short read on payload: wanted %d bytes, got %d", len(payloadBytes), pn))
	}

	byteSwapWords(payloadBytes)
	return frame.Ok(payloadBytes)
}

// byteSwapWords reverses the byte order of every 4-byte word in place,
// converting the big-endian VRT payload Juliet carries on the wire into
// little-endian words the rest of this engine expects.
func byteSwapWords(b []byte) {
	for i := 0; i+4 <= len(b); i += 4 {
		b[i], b[i+1], b[i+2], b[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}
}

// WordsOf reinterprets a byte-swapped payload as a slice of 32-bit
// little-endian words.
func WordsOf(payload []byte) []uint32 {
	words := make([]uint32, len(payload)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
	}
	return words
}
