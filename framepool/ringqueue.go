package framepool

import "sync/atomic"

// ringQueue is a bounded, lock-free multi-producer/multi-consumer queue of
// uint32 indices, following Dmitry Vyukov's MPMC bounded queue algorithm:
// each slot carries a sequence number that producers and consumers use to
// claim it without blocking, giving a wait-free fast path on uncontended
// push/pop (spec §4.7.1, §4.7.6, Design Notes "Arena-indexed buffers").
//
// Capacity is rounded up to the next power of two; indices carry no
// pointer, only a uint32, so ABA is avoided by construction (the index
// space is reused but ownership is always serialized through the buffer's
// atomic state tag).
type ringQueue struct {
	mask       uint64
	cells      []ringCell
	enqueuePos atomic.Uint64
	dequeuePos atomic.Uint64
}

type ringCell struct {
	sequence atomic.Uint64
	value    uint32
}

func newRingQueue(capacity int) *ringQueue {
	n := nextPow2(capacity)
	q := &ringQueue{
		mask:  uint64(n - 1),
		cells: make([]ringCell, n),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// push attempts to enqueue v, returning false if the queue is full.
func (q *ringQueue) push(v uint32) bool {
	pos := q.enqueuePos.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.sequence.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				cell.value = v
				cell.sequence.Store(pos + 1)
				return true
			}
			pos = q.enqueuePos.Load()
		case diff < 0:
			return false // full
		default:
			pos = q.enqueuePos.Load()
		}
	}
}

// pop attempts to dequeue a value, returning false if the queue is empty.
func (q *ringQueue) pop() (uint32, bool) {
	pos := q.dequeuePos.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.sequence.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if q.dequeuePos.CompareAndSwap(pos, pos+1) {
				v := cell.value
				cell.sequence.Store(pos + q.mask + 1)
				return v, true
			}
			pos = q.dequeuePos.Load()
		case diff < 0:
			return 0, false // empty
		default:
			pos = q.dequeuePos.Load()
		}
	}
}
