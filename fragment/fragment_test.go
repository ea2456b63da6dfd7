package fragment

import (
	"testing"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

func TestFragmentationCompleteness(t *testing.T) {
	// spec §8 scenario 4: MTU=1500, headers=36, 273 PRBs, W=16
	// uncompressed (48 bytes/PRB): frame_payload=1464, 30 PRB/frame, 10
	// fragments, last fragment covers the 3 remaining PRBs.
	params := ofh.CompressionParams{Type: ofh.CompNone, DataWidth: 16}
	c := New(params, 1500-36)

	if got := c.PRBSize(); got != 48 {
		t.Fatalf("PRBSize() = %d, want 48", got)
	}

	frags := c.All(273)
	var sum uint16
	for i, f := range frags {
		sum += f.NofPRB
		isLast := i == len(frags)-1
		if f.IsLast != isLast {
			t.Errorf("fragment %d: IsLast = %v, want %v", i, f.IsLast, isLast)
		}
		if !isLast && f.NofPRB != 30 {
			t.Errorf("fragment %d: NofPRB = %d, want 30 (maximal)", i, f.NofPRB)
		}
	}
	if sum != 273 {
		t.Errorf("sum of fragments = %d, want 273", sum)
	}
	if len(frags) != 10 {
		t.Errorf("len(frags) = %d, want 10", len(frags))
	}
	if frags[len(frags)-1].NofPRB != 3 {
		t.Errorf("last fragment NofPRB = %d, want 3", frags[len(frags)-1].NofPRB)
	}
}

func TestTooSmallFrameYieldsZero(t *testing.T) {
	params := ofh.CompressionParams{Type: ofh.CompNone, DataWidth: 16} // 48B/PRB
	c := New(params, 40)                                               // smaller than one PRB
	f := c.Next(0, 10)
	if f.NofPRB != 0 {
		t.Errorf("NofPRB = %d, want 0", f.NofPRB)
	}
}

func TestContiguousCoverage(t *testing.T) {
	params := ofh.CompressionParams{Type: ofh.CompBFP, DataWidth: 9}
	c := New(params, 300)
	frags := c.All(275)

	start := uint16(0)
	for _, f := range frags {
		if f.StartPRB != start {
			t.Fatalf("gap in coverage: want start %d, got %d", start, f.StartPRB)
		}
		start += f.NofPRB
	}
	if start != 275 {
		t.Errorf("total covered = %d, want 275", start)
	}
}

func TestCountFragments(t *testing.T) {
	params := ofh.CompressionParams{Type: ofh.CompNone, DataWidth: 16}
	n := CountFragments(273, 1500, 36, params)
	if n != 10 {
		t.Errorf("CountFragments = %d, want 10", n)
	}
}
