// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package semtable implements the address-keyed counted semaphore of
// spec.md component A: a fixed table of buckets, each holding the waiters
// currently sleeping on counters that hash to it. It is the primitive
// sync.Mutex, sync.RWMutex, and sync.WaitGroup are built from in the real
// runtime (runtime.semacquire/semrelease); package syncx builds its Mutex
// the same way on top of this package.
//
// Bucket lookup, the fast-path CAS loop, and the nwait barrier are all
// adapted from the teacher's nsync.Mu (nsync/mu.go), generalized from a
// single lock bit to an arbitrary caller-owned counter, and from a single
// waiter list to a table of them keyed by address, per spec.md §3-4.A.
package semtable

import (
	"unsafe"

	"github.com/ticketpark/rtsync/rt"
)

// DefaultSize is the default bucket count, a prime chosen to decorrelate
// from typical counter address strides, per spec.md §3.
const DefaultSize = 251

// Counter is a caller-owned 32-bit counter. The caller manipulates it
// directly on the fast path (as sync.Mutex does with its state word); Table
// only touches it through Acquire/Release.
type Counter = rt.Word

// cacheLineSize pads each bucket so that two adjacent buckets do not share
// a cache line; under contention, false sharing across buckets would
// otherwise dominate runtime, per spec.md §9.
const cacheLineSize = 64

type bucket struct {
	lock    rt.SpinLock
	waiters rt.DLL
	nwait   rt.Word
	_       [cacheLineSize]byte // padding
}

// Table is the sema table of spec.md §3: a fixed-size array of buckets
// indexed by hash(addr). One Table is normally allocated once per process
// and never destroyed (spec.md §5), but Table is exported as a
// constructible type so tests can exercise bucket-independence (spec.md §8
// property 7) with small tables.
type Table struct {
	buckets []bucket
}

// New returns a Table with DefaultSize buckets.
func New() *Table { return NewSize(DefaultSize) }

// NewSize returns a Table with the given number of buckets. size should be
// prime for the same reason DefaultSize is.
func NewSize(size int) *Table {
	t := &Table{buckets: make([]bucket, size)}
	for i := range t.buckets {
		t.buckets[i].waiters.MakeEmpty()
	}
	return t
}

func (t *Table) bucketFor(addr unsafe.Pointer) *bucket {
	idx := (uintptr(addr) >> 3) % uintptr(len(t.buckets))
	return &t.buckets[idx]
}

type waiterA struct {
	node        rt.DLL
	sig         rt.ParkSignal
	addr        unsafe.Pointer
	profile     bool
	startTicks  int64
	releaseTime int64 // 0 = off, -1 = stamp requested, >0 = stamped
}

// Acquire decrements the counter at c if it is positive; otherwise it
// blocks until a matching Release hands the slot over. profile requests a
// block-profiling event for this call, subject to the process-wide rate
// set with rt.SetBlockProfileRate.
func (t *Table) Acquire(c *Counter, profile bool) {
	for {
		// Fast path: spec.md §4.A.1, lock-free.
		if v := c.Load(); v > 0 && c.CAS(v, v-1) {
			return
		}

		b := t.bucketFor(unsafe.Pointer(c))
		b.lock.Lock()

		// The nwait barrier: this must happen before the re-check below,
		// so that a concurrent Release that already incremented the
		// counter is guaranteed to observe nwait > 0. See spec.md §4.A
		// "Rationale — the nwait barrier".
		b.nwait.Add(1)

		if v := c.Load(); v > 0 && c.CAS(v, v-1) {
			b.nwait.Add(^uint32(0)) // -1
			b.lock.Unlock()
			return
		}

		w := &waiterA{addr: unsafe.Pointer(c)}
		w.node.Elem = w
		if profile {
			w.profile = true
			w.startTicks = rt.Cputicks()
			w.releaseTime = -1
		}
		w.sig.Arm()
		w.node.InsertAfter(b.waiters.Prev())
		b.lock.Unlock()

		w.sig.Wait()

		if w.profile && w.releaseTime > 0 {
			rt.Blockevent(w.releaseTime-w.startTicks, 2)
		}
		// Retry: the slot may have been stolen between wake and resume
		// (spec.md §4.A.f, scenario S3). Loop back to the fast path.
	}
}

// Release increments the counter at c and, if a waiter on c exists, wakes
// the first one in FIFO order.
func (t *Table) Release(c *Counter) {
	c.Add(1)

	b := t.bucketFor(unsafe.Pointer(c))
	if b.nwait.Load() == 0 {
		return
	}

	b.lock.Lock()
	if b.nwait.Load() == 0 {
		b.lock.Unlock()
		return
	}

	var found *waiterA
	for p := b.waiters.Front(); p != nil && p != &b.waiters; p = p.Next() {
		if w := p.Elem.(*waiterA); w.addr == unsafe.Pointer(c) {
			found = w
			break
		}
	}
	if found == nil {
		// Someone else's bucket collision filled the list.
		b.lock.Unlock()
		return
	}
	found.node.Remove()
	b.nwait.Add(^uint32(0)) // -1
	b.lock.Unlock()

	if found.profile && found.releaseTime == -1 {
		found.releaseTime = rt.Cputicks()
	}
	found.sig.Ready()
}

// NWait returns the number of waiters currently queued for addr's bucket
// (not necessarily all sleeping on addr itself — see spec.md §4.A.release
// step 4). It is exposed for tests of spec.md §8 property 7
// (bucket independence).
func (t *Table) NWait(c *Counter) uint32 {
	return t.bucketFor(unsafe.Pointer(c)).nwait.Load()
}
