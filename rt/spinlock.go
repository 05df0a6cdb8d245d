// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rt

import (
	"runtime"

	"go.uber.org/atomic"
)

// spinDelay is used in spinloops to delay resumption of the loop. After a
// handful of tight spins it yields to the Go scheduler instead of burning
// the P, since unlike the C runtime this core has no cheap way to tell
// whether the lock holder is running on another OS thread right now.
func spinDelay(attempts uint) uint {
	if attempts < 4 {
		for i := 0; i != 1<<attempts; i++ {
		}
		attempts++
	} else {
		runtime.Gosched()
	}
	return attempts
}

// SpinLock is the "intrusive spin/sleep lock primitive for internal
// critical sections" that spec.md §6 lists as consumed from the runtime.
// It guards the short critical sections in semtable's buckets and in
// rendezvous/notifylist's waiter lists; per spec.md §5 it is never held
// across a park.
//
// The zero value is an unlocked SpinLock.
type SpinLock struct {
	held atomic.Uint32
}

// Lock spins until the lock is free, then acquires it.
func (l *SpinLock) Lock() {
	var attempts uint
	for !l.held.CompareAndSwap(0, 1) { // acquire CAS
		attempts = spinDelay(attempts)
	}
}

// Unlock releases the lock. The caller must hold it.
func (l *SpinLock) Unlock() {
	l.held.Store(0) // release store
}
