// Package iqcompress implements the §4.3 IQ compression/decompression engine:
// quantization, Block Floating Point (BFP) exponent selection and the
// no-compression passthrough, built on top of fixedpoint and bitpack.
package iqcompress

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/oran-ofh/gnbdu-ofh-tx/bitpack"
	"github.com/oran-ofh/gnbdu-ofh-tx/fixedpoint"
	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// MaxIQWidth is the width, in bits, of the intermediate fixed-point samples
// that compression shifts and packs from (spec §4.3.1 step 3).
const MaxIQWidth = 16

// ErrUnsupportedCompression is returned for compression types other than
// None and BFP. Per spec §7 this is a configuration bug and is fatal: the
// caller must not retry, and must not have partially written its output.
var ErrUnsupportedCompression = errors.New("iqcompress: unsupported compression type")

// ErrPRBLength is returned when an input slice is not exactly
// ofh.SamplesPerPRB samples long.
var ErrPRBLength = errors.New("iqcompress: PRB must hold exactly 12 samples")

// Compressor applies one configured CompressionParams to PRBs.
//
// Two quantizers are kept because the two compression types convert the
// brain-float input differently (spec §4.3.1 step 1): the none-compression
// path quantizes straight to the target DataWidth, while BFP always
// quantizes to a fixed 16-bit intermediate first and only narrows to
// DataWidth afterwards, via the shared exponent.
type Compressor struct {
	params ofh.CompressionParams
	q      fixedpoint.Quantizer // DataWidth-keyed, used by CompNone
	q16    fixedpoint.Quantizer // fixed 16-bit, used by CompBFP
}

// NewCompressor validates params and returns a Compressor, or
// ErrUnsupportedCompression for any type other than None/BFP.
func NewCompressor(params ofh.CompressionParams) (*Compressor, error) {
	if params.Type != ofh.CompNone && params.Type != ofh.CompBFP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, params.Type)
	}
	return &Compressor{
		params: params,
		q:      fixedpoint.New(uint(params.DataWidth)),
		q16:    fixedpoint.New(MaxIQWidth),
	}, nil
}

// PRBLen returns the wire length in bytes of one compressed PRB.
func (c *Compressor) PRBLen() int { return c.params.PRBPayloadBytes() }

// CompressPRB quantizes and packs one PRB (exactly 12 complex samples,
// values in [-1, +1)) into out, per spec §4.3.1/§4.3.2. Returns the number
// of bytes written, equal to PRBLen(). iqScaling multiplies samples before
// quantization.
func (c *Compressor) CompressPRB(out []byte, samples []complex64, iqScaling float32) (int, error) {
	if len(samples) != ofh.SamplesPerPRB {
		return 0, ErrPRBLength
	}
	need := c.PRBLen()
	if len(out) < need {
		return 0, fmt.Errorf("iqcompress: out too small: have %d need %d", len(out), need)
	}

	width := uint(c.params.DataWidth)
	var fixed [2 * ofh.SamplesPerPRB]int16

	switch c.params.Type {
	case ofh.CompNone:
		for i, s := range samples {
			fixed[2*i] = c.q.ToFixedPoint(real(s) * iqScaling)
			fixed[2*i+1] = c.q.ToFixedPoint(imag(s) * iqScaling)
		}
		bitpack.Pack(out[:need], fixed[:], width)
		return need, nil

	case ofh.CompBFP:
		for i, s := range samples {
			fixed[2*i] = c.q16.ToFixedPoint(real(s) * iqScaling)
			fixed[2*i+1] = c.q16.ToFixedPoint(imag(s) * iqScaling)
		}
		exp := selectExponent(fixed[:], width)
		shifted := fixed
		for i := range shifted {
			shifted[i] = shifted[i] >> exp
		}
		out[0] = byte(exp)
		bitpack.Pack(out[1:need], shifted[:], width)
		return need, nil

	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c.params.Type)
	}
}

// selectExponent implements spec §4.3.1 step 2-3: find the shared exponent
// that lets the largest-magnitude sample fit in `width` bits after an
// arithmetic right shift.
//
// exp = max(0, MaxIQWidth - width - redundantSignBits(maxAbs))
//
// which is restated below using the bit-length of the largest magnitude,
// so that zero input yields exp == 0 exactly (spec §4.3.4).
func selectExponent(samples []int16, width uint) uint {
	var maxAbs uint32
	for _, v := range samples {
		var mag uint32
		if v >= 0 {
			mag = uint32(v)
		} else {
			// one's complement avoids overflow on math.MinInt16 and
			// accounts for the asymmetric negative range (spec §4.3.1.2).
			mag = uint32(^v)
		}
		if mag > maxAbs {
			maxAbs = mag
		}
	}
	if maxAbs == 0 {
		return 0
	}

	nbits := uint(bits.Len32(maxAbs))
	maxExp := MaxIQWidth - width
	if nbits+1 <= width {
		return 0
	}
	exp := nbits + 1 - width
	if exp > maxExp {
		exp = maxExp
	}
	return exp
}

// Decompressor inverts a Compressor configured with the same params. It
// keeps the same pair of quantizers as Compressor, for the same reason.
type Decompressor struct {
	params ofh.CompressionParams
	q      fixedpoint.Quantizer // DataWidth-keyed, used by CompNone
	q16    fixedpoint.Quantizer // fixed 16-bit, used by CompBFP
}

// NewDecompressor validates params and returns a Decompressor, or
// ErrUnsupportedCompression for any type other than None/BFP.
func NewDecompressor(params ofh.CompressionParams) (*Decompressor, error) {
	if params.Type != ofh.CompNone && params.Type != ofh.CompBFP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, params.Type)
	}
	return &Decompressor{
		params: params,
		q:      fixedpoint.New(uint(params.DataWidth)),
		q16:    fixedpoint.New(MaxIQWidth),
	}, nil
}

// PRBLen returns the wire length in bytes of one compressed PRB.
func (d *Decompressor) PRBLen() int { return d.params.PRBPayloadBytes() }

// DecompressPRB inverts CompressPRB: it reads PRBLen() bytes from in and
// appends 12 complex samples to dst, returning the extended slice.
func (d *Decompressor) DecompressPRB(dst []complex64, in []byte) ([]complex64, error) {
	need := d.PRBLen()
	if len(in) < need {
		return dst, fmt.Errorf("iqcompress: in too small: have %d need %d", len(in), need)
	}

	width := uint(d.params.DataWidth)
	var exp uint
	packed := in[:need]
	switch d.params.Type {
	case ofh.CompNone:
		// exp stays 0, no prefix byte.
	case ofh.CompBFP:
		exp = uint(in[0])
		packed = in[1:need]
	default:
		return dst, fmt.Errorf("%w: %s", ErrUnsupportedCompression, d.params.Type)
	}

	fixed := bitpack.UnpackAll(packed, 2*ofh.SamplesPerPRB, width)
	q := d.q
	if d.params.Type == ofh.CompBFP {
		q = d.q16
	}
	for i := 0; i < ofh.SamplesPerPRB; i++ {
		re := q.ToFloat(fixed[2*i] << exp)
		im := q.ToFloat(fixed[2*i+1] << exp)
		dst = append(dst, complex(re, im))
	}
	return dst, nil
}
