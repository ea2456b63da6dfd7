// Package framepool implements the lock-free arena of pre-allocated Ethernet
// frame buffers that the transmit-side C-Plane and U-Plane builders reserve,
// fill and hand back for transmission (spec §4.7).
//
// Every buffer moves through a small state machine:
//
//	free -> reserved -> pending -> queued -> free
//
// A caller reserves a buffer for a given (slot, symbol), writes the frame
// into it, and releases the handle; release moves the buffer from reserved
// to pending. At the matching OTA symbol boundary the transmitter drains
// pending buffers into queued bursts via EnqueuePending. If a slot is never
// drained before the pool index is recycled for a later occurrence of the
// same slot-modulo-window value, ClearSlot reclaims it: late buffers go
// straight back to free, buffers that were written but are merely waiting
// their turn cycle through a pending -> reserved -> pending bounce that
// reuses the ordinary release path (spec §4.7.5).
//
// No allocation occurs on the reserve/release/drain paths: the arena and
// all ring queues are sized once at construction (spec §5 "Real-time
// safety").
package framepool

import (
	"errors"
	"sync/atomic"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// Buffer state tags. The zero value is StateFree so a freshly allocated
// arena starts with every buffer available.
const (
	StateFree uint32 = iota
	StateReserved
	StatePending
	StateQueued
)

// Partition names one of the three independently-pooled frame classes.
type Partition int

const (
	PartitionCPDL Partition = iota
	PartitionCPUL
	PartitionUPDL
	nofPartitions
)

// String implements fmt.Stringer.
func (p Partition) String() string {
	switch p {
	case PartitionCPDL:
		return "cp-dl"
	case PartitionCPUL:
		return "cp-ul"
	case PartitionUPDL:
		return "up-dl"
	default:
		return "unknown"
	}
}

// minFramePayload is the smallest Ethernet payload the MAC will transmit
// without padding; SetSize zero-extends shorter frames up to it (spec §6).
const minFramePayload = 46

// poolSlots is the size of the slot-index ring each partition's pending
// cells are addressed with; it must exceed the deepest in-flight window so
// a slot is never reused while still awaiting drain under normal operation
// (spec §4.7.6).
const poolSlots = 20

// ErrPoolExhausted is returned by Reserve when no free buffer remains.
var ErrPoolExhausted = errors.New("framepool: no free buffer available")

// MetricsSink decouples the pool from whatever counts pool exhaustion and
// late reclamations; a no-op implementation is used when metrics are not
// wired up.
type MetricsSink interface {
	IncPoolExhausted(partition Partition)
	AddLate(partition Partition, n int)
}

type noopSink struct{}

func (noopSink) IncPoolExhausted(Partition)   {}
func (noopSink) AddLate(Partition, int)       {}

// Buffer is one pre-allocated Ethernet frame slot.
type Buffer struct {
	backing          []byte
	size             int
	state            atomic.Uint32
	reservationPoint ofh.SymbolPoint
}

// Bytes returns the written portion of the buffer, [0:size).
func (b *Buffer) Bytes() []byte { return b.backing[:b.size] }

// Scratch returns the full backing array for the caller to write into
// before calling SetSize.
func (b *Buffer) Scratch() []byte { return b.backing }

// SetSize records how much of Scratch() was written, zero-padding up to
// minFramePayload when the caller wrote less (spec §6).
func (b *Buffer) SetSize(n int) {
	if n < minFramePayload {
		for i := n; i < minFramePayload; i++ {
			b.backing[i] = 0
		}
		n = minFramePayload
	}
	b.size = n
}

func (b *Buffer) reset() {
	b.size = 0
}

// Handle is a scoped, single-use reference to a reserved Buffer. Callers
// must call Release exactly once, typically via defer; Go has no
// destructors so the RAII discipline the wire protocol wants is enforced by
// convention and by the released flag guarding double-release.
type Handle struct {
	pool     *Pool
	part     Partition
	cellSlot int
	symbol   uint8
	index    uint32
	released bool
}

// Buffer returns the underlying buffer for writing.
func (h *Handle) Buffer() *Buffer {
	return &h.pool.partitions[h.part].buffers[h.index]
}

// Release ends reserved: an unwritten buffer (SetSize never called) goes
// straight back to free, per the data model's "reserved & empty -> free"
// transition; a written buffer moves to pending, making it eligible for
// EnqueuePending at the matching OTA symbol boundary ("reserved & !empty ->
// pending"). Calling Release twice on the same handle is a programming
// error and is a no-op on the second call.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	p := &h.pool.partitions[h.part]
	buf := &p.buffers[h.index]
	if buf.size == 0 {
		buf.state.Store(StateFree)
		p.free.push(h.index)
		return
	}
	buf.state.Store(StatePending)
	p.cell(h.cellSlot, h.symbol).push(h.index)
}

// partitionPool holds one partition's arena, free-list and per-(slot,
// symbol) pending cells.
type partitionPool struct {
	buffers []Buffer
	free    *ringQueue
	cells   [poolSlots][ofh.SymbolsPerSlot]*ringQueue
	metrics MetricsSink
	which   Partition
}

func (p *partitionPool) cell(cellSlot int, symbol uint8) *ringQueue {
	return p.cells[cellSlot][symbol]
}

// Pool is the full three-partition frame buffer arena.
type Pool struct {
	partitions [nofPartitions]partitionPool
}

// NumberOfBuffers returns the per-partition arena size for a pipeline that
// emits at most maxFramesPerSymbol frames per symbol across up to
// ofh.MaxNofSupportedEAxC lanes; the factor of two covers one symbol being
// drained while the next is being filled (spec §4.7.6).
func NumberOfBuffers(maxFramesPerSymbol int) int {
	return 2 * maxFramesPerSymbol * ofh.MaxNofSupportedEAxC
}

// NewPool allocates a Pool with bufSize-byte buffers, arenaSize buffers and
// pendingCellCapacity-deep pending cells in each partition, and sink
// receiving exhaustion/lateness counts (a nil sink disables metrics).
func NewPool(bufSize, arenaSize, pendingCellCapacity int, sink MetricsSink) *Pool {
	if sink == nil {
		sink = noopSink{}
	}
	pool := &Pool{}
	for i := range pool.partitions {
		pp := &pool.partitions[i]
		pp.which = Partition(i)
		pp.metrics = sink
		pp.buffers = make([]Buffer, arenaSize)
		for b := range pp.buffers {
			pp.buffers[b].backing = make([]byte, bufSize)
		}
		pp.free = newRingQueue(arenaSize)
		for idx := 0; idx < arenaSize; idx++ {
			pp.free.push(uint32(idx))
		}
		for s := range pp.cells {
			for sym := range pp.cells[s] {
				pp.cells[s][sym] = newRingQueue(pendingCellCapacity)
			}
		}
	}
	return pool
}

// Reserve claims a free buffer for point and moves it to reserved, returning
// a Handle the caller must Release exactly once. ErrPoolExhausted is
// returned when the partition's arena is momentarily depleted (spec §4.7.2,
// §7 "Pool exhaustion").
func (pl *Pool) Reserve(part Partition, point ofh.SymbolPoint) (*Handle, error) {
	p := &pl.partitions[part]
	idx, ok := p.free.pop()
	if !ok {
		p.metrics.IncPoolExhausted(part)
		return nil, ErrPoolExhausted
	}
	buf := &p.buffers[idx]
	buf.state.Store(StateReserved)
	buf.reservationPoint = point
	buf.reset()

	cellSlot := int(point.Slot.Slot) % poolSlots
	return &Handle{
		pool:     pl,
		part:     part,
		cellSlot: cellSlot,
		symbol:   point.Symbol,
		index:    idx,
	}, nil
}

// EnqueuePending drains up to maxBurst pending buffers for (slot, symbol)
// into burst, moving each to queued. It returns burst extended by the drained
// handles. Callers
// reset the burst slice themselves between calls (spec §4.7.4).
func (pl *Pool) EnqueuePending(part Partition, point ofh.SymbolPoint, burst []*Handle, maxBurst int) []*Handle {
	p := &pl.partitions[part]
	cellSlot := int(point.Slot.Slot) % poolSlots
	q := p.cell(cellSlot, point.Symbol)
	n := 0
	for n < maxBurst {
		idx, ok := q.pop()
		if !ok {
			break
		}
		buf := &p.buffers[idx]
		buf.state.Store(StateQueued)
		burst = append(burst, &Handle{
			pool:     pl,
			part:     part,
			cellSlot: cellSlot,
			symbol:   point.Symbol,
			index:    idx,
			released: true, // draining transfers ownership; Free returns it
		})
		n++
	}
	return burst
}

// Free returns a drained (queued) buffer to the free list once its frame
// has been handed to the Ethernet gateway.
func (pl *Pool) Free(h *Handle) {
	p := &pl.partitions[h.part]
	buf := &p.buffers[h.index]
	buf.state.Store(StateFree)
	p.free.push(h.index)
}

// ClearSlot reclaims every buffer still sitting in the pending cell for
// (slot, symbol) in partition part. late buffers (their reservation point no
// longer equal to the slot being cleared) go straight back to free and are
// counted; not-late buffers cycle through the documented pending -> reserved
// -> pending bounce, which is equivalent to a normal release, so the buffer
// stays available for the current occupant of the slot (spec §4.7.5).
func (pl *Pool) ClearSlot(part Partition, point ofh.SymbolPoint) {
	p := &pl.partitions[part]
	cellSlot := int(point.Slot.Slot) % poolSlots
	q := p.cell(cellSlot, point.Symbol)

	late := 0
	requeued := false
	var firstRequeued uint32
	for {
		idx, ok := q.pop()
		if !ok {
			break
		}
		if requeued && idx == firstRequeued {
			// Every buffer that was pending on entry has been visited once.
			q.push(idx)
			break
		}
		buf := &p.buffers[idx]
		if buf.reservationPoint != point {
			buf.state.Store(StateFree)
			p.free.push(idx)
			late++
			continue
		}
		if !requeued {
			requeued = true
			firstRequeued = idx
		}
		returnToPending(buf, q, idx)
	}
	if late > 0 {
		p.metrics.AddLate(part, late)
	}
}

// returnToPending reproduces the documented transient "workaround": the
// buffer is already written (its data must survive), so a direct
// pending -> pending move would skip the state machine's reserved gate. It
// is instead bounced pending -> reserved -> pending, then re-enqueued on q,
// leaving it exactly where a fresh Release would.
func returnToPending(buf *Buffer, q *ringQueue, idx uint32) {
	buf.state.Store(StateReserved)
	buf.state.Store(StatePending)
	q.push(idx)
}
