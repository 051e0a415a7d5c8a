// Package mikelima implements the MikeLima profile: the non-VITA MBLB
// framing of Start-of-Message / Packet / End-of-Message records
// (SPEC_FULL.md §4.6, §4.7), grounded on
// original_source/src/bip/non_vita/mblb.py and
// plugins/mikelima/{parser,header}.py.
package mikelima

import "encoding/binary"

// 8-byte word markers, each repeated three times to form a 24-byte
// marker triple in the stream. header.py matches these against the raw
// wire bytes directly (e.g. bytes.fromhex('F07FFF7FFF7FFF7F')); since
// word64 reads a word the way mblb.py's np.frombuffer(dtype=np.uint64)
// does (native, i.e. little-endian, byte order), the constants below
// are those wire bytes reinterpreted little-endian, not the wire bytes
// themselves.
var (
	markerSOM = uint64(0x7FFF7FFF7FFF7FF0)
	markerSOP = uint64(0x7FFF7FFF7FFF7FF1)
	markerEOM = uint64(0x7FFF7FFF7FFF7FF2)
)

// unhandledMarkers abort message reading outright when encountered
// where a SOP or EOM was expected (§4.6).
var unhandledMarkers = map[uint64]bool{
	0x7FFF7FFF7FFF7FF3: true,
	0x7FFF7FFF7FFF7FF7: true,
	0x7FFF7FFF7FFF7FF8: true,
	0x7FFF7FFF7FFF7FF9: true,
	0x7FFF7FFF7FFF7FFA: true,
}

const clocksPerUs = 160

// word64 reinterprets a wire-order 8-byte chunk as mblb.py's
// np.frombuffer(payload, dtype=np.uint64) does: native byte order, not
// the big-endian reading the earlier cut of this decoder used.
func word64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// swap32 exchanges the high and low 32-bit halves of a 64-bit word, as
// mblb.py's word_swap32 does before dividing EventStartTime_us by
// clocksPerUs.
func swap32(w uint64) uint64 {
	hi := uint32(w >> 32)
	lo := uint32(w)
	return uint64(lo)<<32 | uint64(hi)
}
