// Package tango implements the Tango profile: VRLP/VEND-bracketed
// frames (SPEC_FULL.md §4.5) carrying Signal-Data, Context, Heartbeat-
// Context, and GPS-Context packets (§4.7). Grounded on
// original_source/src/bip/plugins/tango's frame.py and *_packet.py.
package tango

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
)

var (
	markerVRLP    = []byte("VRLP")
	markerVEND    = []byte("VEND")
	markerDNEV    = []byte("DNEV")
	needleDeadbeef = []byte{0xDE, 0xAD, 0xBE, 0xEF}
)

// FrameReader reads successive Tango frames, resynchronizing on the
// VRLP marker and optionally cleaning embedded DEADBEEF filler.
type FrameReader struct {
	r         io.Reader
	bytesRead uint64
	clean     bool
}

func NewFrameReader(r io.Reader, clean bool) *FrameReader {
	return &FrameReader{r: r, clean: clean}
}

func (fr *FrameReader) BytesRead() uint64 { return fr.bytesRead }

// Next implements §4.5: scan for "VRLP", read the 4-byte header word
// (frame_count[31:20], frame_size[19:0]), read the declared payload,
// then resolve the trailer per the four malformation cases.
func (fr *FrameReader) Next() frame.Result {
	if !fr.seekVRLP() {
		return frame.End()
	}

	var hdrWord [4]byte
	n, err := io.ReadFull(fr.r, hdrWord[:])
	fr.bytesRead += uint64(n)
	if err != nil {
		return frame.Corrupt("short read: VRLP header word")
	}
	raw := binary.LittleEndian.Uint32(hdrWord[:])
	frameSize := raw & 0xFFFFF

	if frameSize < 2 {
		return frame.Corrupt(fmt.Sprintf("frame_size %d too small for header+trailer", frameSize))
	}
	payloadLen := 4 * int(frameSize-2)
	payload := make([]byte, payloadLen)
	n, err = io.ReadFull(fr.r, payload)
	fr.bytesRead += uint64(n)
	if err != nil {
		return frame.Corrupt("short read: Could not find DNEV trailer, frame size given does not match data")
	}

	var trailer [4]byte
	n, err = io.ReadFull(fr.r, trailer[:])
	fr.bytesRead += uint64(n)
	if err != nil {
		return frame.Corrupt("short read: VEND trailer")
	}

	if bytes.Equal(trailer[:], markerVEND) {
		if fr.clean && bytes.Contains(payload, needleDeadbeef) {
			cleaned, extra, extraN, err := fr.cleanDeadbeef(payload)
			fr.bytesRead += uint64(extraN)
			if err != nil {
				return frame.Corrupt(err.Error())
			}
			_ = extra
			return frame.Ok(cleaned)
		}
		return frame.Ok(payload)
	}

	// Trailer wasn't VEND: either DNEV is somewhere inside the declared
	// payload (over-reported frame_size) or it's further out (under-
	// reported frame_size, or altogether malformed).
	combined := append(payload, trailer[:]...)
	if idx := bytes.Index(combined, markerDNEV); idx >= 0 {
		return frame.Corrupt("DNEV within payload")
	}

	// Keep consuming 4-byte words looking for DNEV.
	for {
		var word [4]byte
		n, err := io.ReadFull(fr.r, word[:])
		fr.bytesRead += uint64(n)
		if err != nil {
			return frame.Corrupt("Could not find DNEV trailer, frame size given does not match data")
		}
		if bytes.Equal(word[:], markerDNEV) {
			return frame.Corrupt("Could not find DNEV trailer, frame size given does not match data")
		}
	}
}

func (fr *FrameReader) seekVRLP() bool {
	window := make([]byte, 0, 4)
	buf := make([]byte, 1)
	for {
		n, err := fr.r.Read(buf)
		if n == 0 {
			if err != nil {
				return false
			}
			continue
		}
		fr.bytesRead++
		if len(window) == 4 {
			window = window[1:]
		}
		window = append(window, buf[0])
		if len(window) == 4 && bytes.Equal(window, markerVRLP) {
			return true
		}
	}
}

// cleanDeadbeef excises every aligned DEADBEEF word from payload and
// pulls an equal number of replacement words from the stream so the
// frame's declared length accounting still balances (§4.5 item 2, §8
// P6): the bytes displaced by the removed filler must be replaced by
// reading further ahead, not merely truncated.
func (fr *FrameReader) cleanDeadbeef(payload []byte) (cleaned []byte, removed int, extraRead int, err error) {
	out := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i += 4 {
		end := i + 4
		if end > len(payload) {
			out = append(out, payload[i:]...)
			break
		}
		word := payload[i:end]
		if bytes.Equal(word, needleDeadbeef) {
			removed++
			continue
		}
		out = append(out, word...)
	}
	for removed > 0 {
		var extra [4]byte
		n, rerr := io.ReadFull(fr.r, extra[:])
		extraRead += n
		if rerr != nil {
			return nil, removed, extraRead, fmt.Errorf("short read replacing DEADBEEF filler")
		}
		if bytes.Equal(extra[:], needleDeadbeef) {
			removed++
			continue
		}
		out = append(out, extra[:]...)
		removed--
	}
	return out, removed, extraRead, nil
}
