// Package bitfield decodes the packed fixed-point quantities carried in VRT
// and MBLB payloads: bandwidth, frequency, offset, sample rate, dwell,
// time, and pointing-vector fields. Every function here is pure: it takes
// the raw words and returns the engineering-unit value, with no knowledge
// of where the words came from.
package bitfield

// Bandwidth decodes a 64-bit two's-complement bandwidth field split across
// two 32-bit words (h the high/MSW, l the low/LSW), per VITA-49.2 rule
// 9.5.1-2: integer part with the radix point right of bit 20 of the second
// word, reported in MHz.
func Bandwidth(h, l uint32) uint32 {
	return uint32(fixedPoint20(h, l) * 1e-6)
}

// Frequency decodes a 64-bit two's-complement frequency field (IF/RF
// reference frequency, rule 9.5.5-3 / 9.5.10-2), reported in GHz.
func Frequency(h, l uint32) float64 {
	return fixedPoint20(h, l) * 1e-9
}

// Offset decodes an RF frequency offset field using the same 2^-20 radix
// as Bandwidth, reported in MHz.
func Offset(h, l uint32) uint32 {
	return uint32(fixedPoint20(h, l) * 1e-6)
}

// SampleRate decodes a sample-rate field (rule 9.5.12-2), truncated to an
// unsigned 32-bit MSps value.
func SampleRate(h, l uint32) uint32 {
	return uint32(fixedPoint20(h, l) * 1e-6)
}

// Dwell decodes a dwell-time field: a plain 64-bit count of the two words
// scaled by 1e-9 (fs-to-us, since the source word count is in femtoseconds).
func Dwell(h, l uint32) float64 {
	return float64(join64(h, l)) * 1e-9
}

// Time decodes a VRT timestamp (integer seconds tsi, plus a 64-bit
// fractional-picosecond count split across tsf0 (MSW) and tsf1 (LSW)) into
// a floating point seconds value.
func Time(tsi, tsf0, tsf1 uint32) float64 {
	return float64(tsi) + float64(join64(tsf0, tsf1))*1e-12
}

// FractionalTime decodes a pulse-width/PRI/duration-style field: a 64-bit
// two's-complement count of the two words scaled by 1e-15 (femtoseconds to
// seconds), per VITA-49.2 rule 9.7-1/9.7-2.
func FractionalTime(h, l uint32) float64 {
	return float64(int64(join64(h, l))) * 1e-15
}

// Pointing decodes a packed 32-bit pointing-vector word: the low 16 bits
// carry an unsigned azimuth scaled by 2^-7 degrees, wrapped back across
// zero (subtract 360) once it reaches 280 deg; the high 16 bits carry a
// sign-extended elevation on the same scale.
func Pointing(word uint32) (azimuth, elevation float64) {
	az := uint16(word & 0xFFFF)
	el := int16(word >> 16)

	azimuth = float64(az) * (1.0 / 128.0)
	elevation = float64(el) * (1.0 / 128.0)
	if azimuth >= 280 {
		azimuth -= 360
	}
	return azimuth, elevation
}

// fixedPoint20 reassembles h and l into a 64-bit two's-complement value and
// scales it by 2^-20, the radix point VITA-49.2 places to the right of bit
// 20 of the second (low) word for bandwidth/frequency/sample-rate fields.
func fixedPoint20(h, l uint32) float64 {
	return float64(int64(join64(h, l))) * (1.0 / 1048576.0)
}

// join64 reassembles two 32-bit words into a 64-bit value, high word first.
// The shift is always performed as an explicit uint64 operation so it can
// never silently overflow a narrower type.
func join64(h, l uint32) uint64 {
	return (uint64(h) << 32) | uint64(l)
}
