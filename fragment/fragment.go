// Package fragment computes per-symbol PRB fragmentation so that each
// Ethernet frame honors the link MTU (spec §4.4).
package fragment

import "github.com/oran-ofh/gnbdu-ofh-tx/ofh"

// Fragment describes one contiguous run of PRBs that fits within a single
// frame payload budget.
type Fragment struct {
	StartPRB uint16
	NofPRB   uint16
	IsLast   bool
}

// Calculator yields successive fragments covering a symbol, given a fixed
// per-PRB wire size and a frame payload budget.
type Calculator struct {
	prbSize   int
	frameSize int
}

// New returns a Calculator for the given compression parameters and frame
// payload budget in bytes (MTU minus headers).
func New(params ofh.CompressionParams, frameSize int) Calculator {
	return Calculator{prbSize: params.PRBPayloadBytes(), frameSize: frameSize}
}

// PRBSize returns the configured per-PRB wire size in bytes.
func (c Calculator) PRBSize() int { return c.prbSize }

// Next returns the next fragment starting at startPRB, covering at most
// remaining PRBs, such that its wire size fits within the frame payload
// budget. When the budget cannot hold even a single PRB, NofPRB is 0 and
// the caller must skip that frame (spec §4.4, §7).
func (c Calculator) Next(startPRB, remaining uint16) Fragment {
	if c.prbSize <= 0 {
		return Fragment{StartPRB: startPRB, NofPRB: 0, IsLast: remaining == 0}
	}
	maxPRBs := c.frameSize / c.prbSize
	if maxPRBs <= 0 {
		return Fragment{StartPRB: startPRB, NofPRB: 0}
	}
	n := uint16(maxPRBs)
	if n > remaining {
		n = remaining
	}
	return Fragment{StartPRB: startPRB, NofPRB: n, IsLast: n == remaining}
}

// All returns the partition of [0, nofPRB) into fragments. All but possibly
// the last fragment are of maximal size (spec §8 "Fragmentation
// completeness"). When the budget cannot hold a single PRB, All returns no
// fragments; callers that need to see each too-small frame should use Next
// directly and check NofPRB == 0.
func (c Calculator) All(nofPRB uint16) []Fragment {
	var frags []Fragment
	start, remaining := uint16(0), nofPRB
	for remaining > 0 {
		f := c.Next(start, remaining)
		if f.NofPRB == 0 {
			break
		}
		frags = append(frags, f)
		start += f.NofPRB
		remaining -= f.NofPRB
	}
	return frags
}

// CountFragments returns the total fragment count for nofPRB PRBs given an
// MTU and header overhead; it sizes the frame pool (spec §4.4, §4.7.6).
func CountFragments(nofPRB uint16, mtu, headerOverhead int, params ofh.CompressionParams) int {
	c := New(params, mtu-headerOverhead)
	if c.prbSize <= 0 || c.frameSize < c.prbSize {
		return 0
	}
	maxPRBs := c.frameSize / c.prbSize
	if maxPRBs <= 0 {
		return 0
	}
	n := int(nofPRB) / maxPRBs
	if int(nofPRB)%maxPRBs != 0 {
		n++
	}
	return n
}
