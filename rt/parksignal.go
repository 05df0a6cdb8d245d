// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rt

import "go.uber.org/atomic"

// ParkSignal is the concrete realization of spec.md's park_unlock/ready
// pair for a single WaiterRecord. The calling convention, lifted directly
// from the teacher's nsync.waiter:
//
//	var sig ParkSignal
//	sig.Arm()          // while still holding the component's lock
//	<enqueue the waiter on the component's list>
//	<release the component's lock>
//	sig.Wait()         // parks until Ready is called
//
// and, for whoever dequeues the waiter:
//
//	<unlink the waiter, still holding the lock>
//	<release the lock>
//	sig.Ready()        // outside the lock, per spec.md §5
//
// Arming before enqueueing and before the lock is released is what makes
// this race-free: Ready can run (and complete) before Wait is ever called,
// and Wait will still return immediately, because Ready's store of 0 into
// waiting happens-before Wait's load observes it, and the semaphore absorbs
// a V() that arrives before its matching P().
type ParkSignal struct {
	sem     binarySemaphore
	waiting atomic.Uint32
}

// Arm marks the signal as "parked but not yet woken". Must be called before
// the waiter becomes visible to any other task (i.e. before it is enqueued
// and before the owning lock is released).
func (s *ParkSignal) Arm() {
	s.sem.init()
	s.waiting.Store(1)
}

// Wait blocks until Ready has been called. It loops on the semaphore rather
// than waiting once, because a thread that already saw waiting==0 must not
// block on the semaphore at all, and because it is valid (if wasteful) for
// the semaphore to be signalled by something other than a matching Ready.
func (s *ParkSignal) Wait() {
	for s.waiting.Load() != 0 { // acquire load
		s.sem.P()
	}
}

// Ready wakes the parked task. Must be called after the waiter has been
// unlinked from its queue and outside the component's lock.
func (s *ParkSignal) Ready() {
	s.waiting.Store(0) // release store
	s.sem.V()
}
