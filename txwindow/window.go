// Package txwindow tracks the current over-the-air (OTA) symbol and answers
// whether a given resource-grid slot can still make its transmission window
// (spec §4.8).
package txwindow

import (
	"sync/atomic"
	"time"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// T1aEnds holds the end-of-window symbol offsets (relative to OTA) for the
// three message classes the advance-time calculation maximizes over (spec
// §4.8).
type T1aEnds struct {
	CPDLEnd uint32
	CPULEnd uint32
	UPDLEnd uint32
}

// Params configures a Checker's advance-time calculation.
type Params struct {
	Numerology         uint8
	DLProcessingTime   time.Duration
	T1a                T1aEnds
}

// Checker maintains the current OTA symbol and the derived advance time,
// and counts observed late events (spec §4.8).
type Checker struct {
	currentOTA atomic.Int64 // linearized SymbolPoint.totalSymbols(), see ofh.SymbolPoint
	numerology uint8
	advance    int64
	lateCount  atomic.Uint64
}

// NewChecker derives advance_time_in_symbols from p and returns a Checker
// whose current OTA symbol starts at the hyperframe origin.
func NewChecker(p Params) *Checker {
	slotsPerSubframe := uint32(1) << p.Numerology
	nsymbPerSlot := uint32(ofh.SymbolsPerSlot)
	symbolDurationNs := int64(1_000_000) / int64(nsymbPerSlot*slotsPerSubframe)
	dlProcSymbols := p.DLProcessingTime.Nanoseconds() / symbolDurationNs

	advance := dlProcSymbols + int64(maxUint32(p.T1a.CPDLEnd, p.T1a.CPULEnd, p.T1a.UPDLEnd))

	return &Checker{numerology: p.Numerology, advance: advance}
}

func maxUint32(a, b, c uint32) uint32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// Advance moves the current OTA symbol forward to point. Single-writer: the
// OTA tick source is the only caller.
func (c *Checker) Advance(point ofh.SymbolPoint) {
	c.currentOTA.Store(point.Sub(ofh.SymbolPoint{}))
}

// IsLate reports whether slot's first symbol is no longer reachable within
// its transmission window: true iff current_ota_symbol >= slot_symbol(slot,
// 0) - advance_time_in_symbols. The boundary case (equality) counts as late
// (spec §7 "boundary slot returns true").
func (c *Checker) IsLate(slot ofh.SlotPoint) bool {
	rgPoint := ofh.SymbolPoint{Slot: slot, Symbol: 0}.Sub(ofh.SymbolPoint{}) - c.advance
	late := c.currentOTA.Load() >= rgPoint
	if late {
		c.lateCount.Add(1)
	}
	return late
}

// DrainLateCount atomically reads and resets the observed late-event
// counter, for periodic collection by the metrics sink (spec §4.8).
func (c *Checker) DrainLateCount() uint64 {
	return c.lateCount.Swap(0)
}
