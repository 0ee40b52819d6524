package meshopt

import "math"

// QuantizeUnorm quantizes v in [0, 1] to a bits-wide unsigned normalized
// fixed point value, reconstructed as q / (2^bits - 1). Out of range input is
// clamped, and so is bits, to [1, 32]. The maximum reconstruction error is
// 1/2^(bits+1).
func QuantizeUnorm(v float32, bits int) int {
	bits = min(max(bits, 1), 32)
	scale := float32(int(1)<<bits - 1)

	if !(v >= 0) {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	return int(v*scale + 0.5)
}

// QuantizeSnorm quantizes v in [-1, 1] to a bits-wide signed normalized fixed
// point value, reconstructed as q / (2^(bits-1) - 1), rounding half away from
// zero. bits is clamped to [2, 32]. The maximum reconstruction error is
// 1/2^bits.
func QuantizeSnorm(v float32, bits int) int {
	bits = min(max(bits, 2), 32)
	scale := float32(int(1)<<(bits-1) - 1)

	round := float32(0.5)
	if !(v >= 0) {
		round = -0.5
	}

	if !(v >= -1) {
		v = -1
	}
	if v > 1 {
		v = 1
	}

	return int(v*scale + round)
}

// QuantizeHalf converts v to IEEE 754 half precision. Overflow saturates to
// infinity of the same sign, denormals flush to zero, every NaN becomes the
// same quiet NaN and the mantissa rounds to nearest.
func QuantizeHalf(v float32) uint16 {
	ui := math.Float32bits(v)

	s := (ui >> 16) & 0x8000
	em := ui & 0x7fffffff

	// bias exponent and round to nearest; 112 is relative exponent bias (127-15)
	h := (int32(em) - 112<<23 + 1<<12) >> 13

	switch {
	case em > 255<<23: // NaN
		h = 0x7e00
	case em >= 143<<23: // overflow, exponent 16 and up
		h = 0x7c00
	case em < 113<<23: // underflow, exponent -15 and below
		h = 0
	}

	return uint16(s | uint32(h))
}
