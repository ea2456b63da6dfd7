// Package seqid implements the per-eAxC monotonically increasing sequence
// counter used to stamp eCPRI headers (spec §4.6).
package seqid

import (
	"fmt"
	"sync/atomic"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// Generator holds one wrapping 8-bit counter per eAxC.
type Generator struct {
	counters [ofh.MaxSupportedEAxCID]atomic.Uint32
}

// NewGenerator returns a Generator with all counters at zero.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate performs a relaxed fetch-add on the counter for eaxc and returns
// the pre-increment value, wrapping modulo 256. Calling with
// eaxc >= ofh.MaxSupportedEAxCID is a programming error and panics (spec
// §4.6, §7 "Invalid eAxC").
func (g *Generator) Generate(eaxc ofh.EAxC) uint8 {
	if int(eaxc) >= ofh.MaxSupportedEAxCID {
		panic(fmt.Sprintf("seqid: eaxc %d out of range [0, %d)", eaxc, ofh.MaxSupportedEAxCID))
	}
	v := g.counters[eaxc].Add(1) - 1
	return uint8(v)
}

// Peek returns the next value Generate would produce, without advancing the
// counter. Useful in tests and diagnostics.
func (g *Generator) Peek(eaxc ofh.EAxC) uint8 {
	if int(eaxc) >= ofh.MaxSupportedEAxCID {
		panic(fmt.Sprintf("seqid: eaxc %d out of range [0, %d)", eaxc, ofh.MaxSupportedEAxCID))
	}
	return uint8(g.counters[eaxc].Load())
}
