// Package fixedpoint converts between brain-float IQ samples and the signed
// fixed-point integers carried over the Open Fronthaul wire, per spec §4.1.
package fixedpoint

import "math"

// Quantizer converts floating-point samples in [-1, 1) to/from a B-bit signed
// fixed-point representation, clipping on overflow. It holds no state beyond
// the configured bit width and is safe for concurrent use.
type Quantizer struct {
	bitWidth  uint
	shiftSign uint
	gain      float64
}

// New returns a Quantizer for the given bit width, range [1..16].
func New(bitWidth uint) Quantizer {
	if bitWidth == 0 || bitWidth > 16 {
		panic("fixedpoint: bit width out of range [1, 16]")
	}
	return Quantizer{
		bitWidth:  bitWidth,
		shiftSign: 16 - bitWidth,
		gain:      float64(int(1<<(bitWidth-1)) - 1),
	}
}

// BitWidth returns the configured width in bits.
func (q Quantizer) BitWidth() uint { return q.bitWidth }

// Gain returns 2^(bitWidth-1) - 1, the scale applied on quantization.
func (q Quantizer) Gain() float64 { return q.gain }

// ToFixedPoint clamps x to [-1, +1] and rounds x*gain into a B-bit value
// stored in the low bits of an int16 (spec §4.1).
func (q Quantizer) ToFixedPoint(x float32) int16 {
	clipped := float64(x)
	if clipped > 1.0 {
		clipped = 1.0
	} else if clipped < -1.0 {
		clipped = -1.0
	}
	return int16(math.Round(clipped * q.gain))
}

// ToFixedPointSlice applies ToFixedPoint with an extra inScale factor to
// every element of in, writing into out. len(out) must equal len(in).
func (q Quantizer) ToFixedPointSlice(out []int16, in []float32, inScale float32) {
	if len(out) != len(in) {
		panic("fixedpoint: out/in length mismatch")
	}
	scale := q.gain * float64(inScale)
	for i, x := range in {
		clipped := float64(x)
		if clipped > 1.0 {
			clipped = 1.0
		} else if clipped < -1.0 {
			clipped = -1.0
		}
		out[i] = int16(math.Round(clipped * scale))
	}
}

// ToFloat converts a quantized sample back to floating point.
func (q Quantizer) ToFloat(p int16) float32 {
	return float32(float64(p) / q.gain)
}

// SignExtend treats v as a bitWidth-bit signed value sitting in the low
// bits and sign-extends it to a full int16 via an arithmetic shift pair
// (spec §4.1).
func (q Quantizer) SignExtend(v int16) int16 {
	shifted := v << q.shiftSign
	return shifted >> q.shiftSign
}
