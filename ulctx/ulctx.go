// Package ulctx is the uplink C-Plane context repository (spec §4.9, §6):
// an immutable-per-entry record of the radio parameters an uplink or PRACH
// C-Plane request announced to the RU, kept around so the U-Plane reception
// path can validate the IQ data that eventually arrives against what was
// requested.
//
// Entries are addressed by (slot, symbol, filter_index, eAxC). The
// repository is a fixed slotted array sized at construction: no entry
// allocates on the write or read path, matching the real-time-safety
// requirement that rules out a map-based repository here (spec §5).
package ulctx

import (
	"sync/atomic"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// RadioHeaderFields mirrors the subset of the radio header an uplink
// context needs to remember for later validation.
type RadioHeaderFields struct {
	Direction   ofh.Direction
	Slot        ofh.SlotPoint
	FilterIndex ofh.FilterIndex
	StartSymbol uint8
}

// Entry is the immutable record stored per (slot, symbol, filter, eAxC)
// (spec §4.9 "C-Plane uplink context").
type Entry struct {
	Radio      RadioHeaderFields
	PRBStart   uint16
	NofPRB     uint16
	NofSymbols uint8
}

// ringSlots bounds how many distinct slot values the repository tracks at
// once; writers and readers are always separated by at least one full
// round of this ring under normal scheduling (spec §4.9 "reads from the
// reception path are on a different slot so no contention").
const ringSlots = 20

// cell holds one (symbol, filter, eAxC) entry plus an occupancy flag so
// Lookup can distinguish "never written" from a zero-valued Entry.
type cell struct {
	occupied atomic.Bool
	entry    Entry
}

// Repository is the fixed-size uplink C-Plane context store.
type Repository struct {
	cells [ringSlots][ofh.SymbolsPerSlot][maxFilters][ofh.MaxNofSupportedEAxC]cell
}

// maxFilters bounds the filter_index dimension; indices beyond this are a
// configuration error and Record/Lookup panic.
const maxFilters = 8

// NewRepository returns an empty uplink context repository.
func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) index(slot ofh.SlotPoint, symbol uint8, filter ofh.FilterIndex, eaxc ofh.EAxC) *cell {
	s := int(slot.Slot) % ringSlots
	return &r.cells[s][symbol][filter][eaxc]
}

// Record stores e for (slot, symbol, filter, eAxC), overwriting whatever
// occupied that slotted cell from an earlier occurrence of the same
// slot-modulo-window value (spec §4.9).
func (r *Repository) Record(slot ofh.SlotPoint, symbol uint8, filter ofh.FilterIndex, eaxc ofh.EAxC, e Entry) {
	c := r.index(slot, symbol, filter, eaxc)
	c.entry = e
	c.occupied.Store(true)
}

// Lookup returns the entry recorded for (slot, symbol, filter, eAxC) and
// whether one was found. A cell recorded for a different slot (the ring
// wrapped without being cleared) is reported as not-found, since the
// identity check happens on the caller's Entry.Radio.Slot field.
func (r *Repository) Lookup(slot ofh.SlotPoint, symbol uint8, filter ofh.FilterIndex, eaxc ofh.EAxC) (Entry, bool) {
	c := r.index(slot, symbol, filter, eaxc)
	if !c.occupied.Load() {
		return Entry{}, false
	}
	e := c.entry
	if e.Radio.Slot != slot {
		return Entry{}, false
	}
	return e, true
}

// Clear removes the entry for (slot, symbol, filter, eAxC), used once the
// reception window for that symbol has closed.
func (r *Repository) Clear(slot ofh.SlotPoint, symbol uint8, filter ofh.FilterIndex, eaxc ofh.EAxC) {
	c := r.index(slot, symbol, filter, eaxc)
	c.occupied.Store(false)
}

// SlotContext is the per-slot bookkeeping recorded alongside individual
// symbol entries: the set of symbols the reception path must notify the
// upper PHY about once their window closes (spec §4.9 point 5).
type SlotContext struct {
	Slot             ofh.SlotPoint
	NotifiedSymbols  [ofh.SymbolsPerSlot]bool
}

// SlotRepository tracks one SlotContext per slot-modulo-window value.
type SlotRepository struct {
	slots [ringSlots]slotCell
}

type slotCell struct {
	occupied atomic.Bool
	ctx      SlotContext
}

// NewSlotRepository returns an empty per-slot context repository.
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

// Record stores ctx for its slot.
func (r *SlotRepository) Record(ctx SlotContext) {
	c := &r.slots[int(ctx.Slot.Slot)%ringSlots]
	c.ctx = ctx
	c.occupied.Store(true)
}

// Lookup returns the SlotContext recorded for slot, if any and if it has
// not since been overwritten by a later occurrence of the same ring index.
func (r *SlotRepository) Lookup(slot ofh.SlotPoint) (SlotContext, bool) {
	c := &r.slots[int(slot.Slot)%ringSlots]
	if !c.occupied.Load() {
		return SlotContext{}, false
	}
	ctx := c.ctx
	if ctx.Slot != slot {
		return SlotContext{}, false
	}
	return ctx, true
}
