package tango

import "math"

func float64frombits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// asFloat32 reinterprets a single 32-bit word as an IEEE-754 float32,
// the way words[i].view(dtype=np.float32) does, widened to float64 for
// the columnar schema.
func asFloat32(w uint32) float64 {
	return float64(math.Float32frombits(w))
}
