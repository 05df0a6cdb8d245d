// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rt supplies the small set of primitives that the rest of
// rtsync treats as belonging to the runtime rather than to any one
// synchronization component: the park/ready pair (ParkSignal) that
// suspends and resumes a waiting goroutine, 32-bit atomic words, an
// intrusive doubly-linked list, a spin/sleep lock, a monotonic
// tick source, and the block-profiling event sink. semtable,
// rendezvous, and notifylist are all written against this package
// instead of talking to goroutines and channels directly, the way
// runtime.semacquire talks to park/goready rather than to the
// scheduler's internals.
package rt

import (
	"time"

	"go.uber.org/atomic"
)

// nowFunc stands in for cputicks(); it is a var so tests can inject a
// controlled clock, following the pattern used by the teacher's timing
// package (timing.nowFunc).
var nowFunc = time.Now

// tickEpoch is the reference point Cputicks measures from; differences of
// time.Time values that carry a monotonic reading use that reading.
var tickEpoch = time.Now()

// Cputicks returns a monotonic tick count used to time block events.
// It is not wall-clock time; only differences between two calls are
// meaningful.
func Cputicks() int64 {
	return int64(nowFunc().Sub(tickEpoch))
}

// Word is a 32-bit word manipulated with release-store/acquire-load
// semantics, i.e. exactly the operations spec.md ties its no-missed-wakeup
// argument to. It wraps go.uber.org/atomic rather than sync/atomic so call
// sites read as typed operations instead of bare pointer arithmetic.
type Word struct {
	v atomic.Uint32
}

// Load performs an acquire-load.
func (w *Word) Load() uint32 { return w.v.Load() }

// Store performs a release-store.
func (w *Word) Store(val uint32) { w.v.Store(val) }

// CAS performs an acquire/release compare-and-swap.
func (w *Word) CAS(old, new uint32) bool { return w.v.CompareAndSwap(old, new) }

// Add performs an atomic fetch-and-add, returning the new value.
func (w *Word) Add(delta uint32) uint32 { return w.v.Add(delta) }
