package txwindow

import (
	"testing"
	"time"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// TestLatenessScenario reproduces the documented lateness example: normal
// CP, SCS=30kHz, dl_processing_time=400us, T1a window end=13 symbols,
// giving advance=24 symbols. A slot 14 symbols ahead of the OTA point is
// late; one 42 symbols ahead is on time.
func TestLatenessScenario(t *testing.T) {
	c := NewChecker(Params{
		Numerology:       1, // 30 kHz
		DLProcessingTime: 400 * time.Microsecond,
		T1a:              T1aEnds{CPDLEnd: 13, CPULEnd: 13, UPDLEnd: 13},
	})
	if c.advance != 24 {
		t.Fatalf("advance = %d, want 24", c.advance)
	}

	ota := ofh.SlotPoint{Numerology: 1, SFN: 0, Slot: 100}
	c.Advance(ofh.SymbolPoint{Slot: ota, Symbol: 0})

	lateSlot := ofh.SlotPoint{Numerology: 1, SFN: 0, Slot: 101}
	if !c.IsLate(lateSlot) {
		t.Error("slot 101 (distance 14) should be late")
	}

	onTimeSlot := ofh.SlotPoint{Numerology: 1, SFN: 0, Slot: 103}
	if c.IsLate(onTimeSlot) {
		t.Error("slot 103 (distance 42) should be on time")
	}
}

func TestBoundaryEqualityCountsAsLate(t *testing.T) {
	c := &Checker{advance: ofh.SymbolsPerSlot}
	ota := ofh.SlotPoint{Numerology: 1, Slot: 20}
	c.Advance(ofh.SymbolPoint{Slot: ota, Symbol: 0})

	// slot whose distance from OTA in symbols equals advance exactly: with
	// advance = one slot of symbols, that is the next slot's symbol 0.
	target := ofh.SymbolPoint{Slot: ota, Symbol: 0}.AddSymbols(ofh.SymbolsPerSlot)
	if !c.IsLate(target.Slot) {
		t.Error("boundary slot should report late")
	}
}

func TestDrainLateCountResets(t *testing.T) {
	c := NewChecker(Params{Numerology: 1, DLProcessingTime: 0, T1a: T1aEnds{}})
	ota := ofh.SlotPoint{Numerology: 1, Slot: 50}
	c.Advance(ofh.SymbolPoint{Slot: ota, Symbol: 0})

	c.IsLate(ofh.SlotPoint{Numerology: 1, Slot: 50})
	c.IsLate(ofh.SlotPoint{Numerology: 1, Slot: 50})

	if got := c.DrainLateCount(); got != 2 {
		t.Errorf("DrainLateCount = %d, want 2", got)
	}
	if got := c.DrainLateCount(); got != 0 {
		t.Errorf("second DrainLateCount = %d, want 0 (already drained)", got)
	}
}
