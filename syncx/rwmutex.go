// Copyright 2009 The Go Authors. All rights reserved.
// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncx

import (
	"github.com/ticketpark/rtsync/rt"
)

// rwmutexMaxReaders is the real sync.RWMutex's cap on pending readers,
// reused here unchanged: it must be large enough that no realistic
// process ever has this many readers in flight, since Lock borrows the
// whole range to signal "a writer is pending" to RUnlock.
const rwmutexMaxReaders = 1 << 30

// RWMutex is a reader/writer mutual exclusion lock built directly on
// semtable.Table, the way the real sync.RWMutex is built on
// runtime_SemacquireMutex/runtime_Semrelease (see
// veezhang-go1.12.9-annotated/src/sync/rwmutex.go, which this type
// follows field-for-field). readerSem and writerSem are ordinary
// semtable.Counter values shared through the same defaultTable as Mutex.
//
// The lock can be held by an arbitrary number of readers or a single
// writer. The zero value is an unlocked RWMutex. A RWMutex must not be
// copied after first use, and must not be recursively read-locked if
// another goroutine might call Lock.
type RWMutex struct {
	w           Mutex // serializes writers; also excludes writers from each other
	writerSem   rt.Word
	readerSem   rt.Word
	readerCount rt.Word // signed count of pending readers (two's complement in a uint32)
	readerWait  rt.Word // readers a departing writer still waits on
}

// addInt32 adds delta (interpreted as a signed value) to w and returns
// the signed result, matching atomic.AddInt32's contract for the fields
// above.
func addInt32(w *rt.Word, delta int32) int32 {
	return int32(w.Add(uint32(delta)))
}

// RLock locks rw for reading. It must not be used for recursive read
// locking: a blocked Lock call excludes new readers, so a goroutine that
// already holds a read lock and calls RLock again can deadlock against a
// concurrent Lock.
func (rw *RWMutex) RLock() {
	if addInt32(&rw.readerCount, 1) < 0 {
		// A writer is pending; wait for it to finish.
		defaultTable.Acquire(&rw.readerSem, false)
	}
}

// RUnlock undoes a single RLock call. It is a run-time error if rw is not
// locked for reading on entry.
func (rw *RWMutex) RUnlock() {
	if r := addInt32(&rw.readerCount, -1); r < 0 {
		if r+1 == 0 || r+1 == -rwmutexMaxReaders {
			panic("rtsync/syncx: RUnlock of unlocked RWMutex")
		}
		if addInt32(&rw.readerWait, -1) == 0 {
			defaultTable.Release(&rw.writerSem)
		}
	}
}

// Lock locks rw for writing, blocking until no reader or writer holds it.
func (rw *RWMutex) Lock() {
	rw.w.Lock()
	r := addInt32(&rw.readerCount, -rwmutexMaxReaders) + rwmutexMaxReaders
	if r != 0 && addInt32(&rw.readerWait, r) != 0 {
		defaultTable.Acquire(&rw.writerSem, false)
	}
}

// Unlock unlocks rw for writing. It panics if rw is not locked for
// writing. As with Mutex, an RWMutex is not tied to the goroutine that
// locked it.
func (rw *RWMutex) Unlock() {
	r := addInt32(&rw.readerCount, rwmutexMaxReaders)
	if r >= rwmutexMaxReaders {
		panic("rtsync/syncx: Unlock of unlocked RWMutex")
	}
	for i := 0; i < int(r); i++ {
		defaultTable.Release(&rw.readerSem)
	}
	rw.w.Unlock()
}

// RLocker returns a Locker that calls rw.RLock and rw.RUnlock.
func (rw *RWMutex) RLocker() Locker { return (*rlocker)(rw) }

// Locker mirrors sync.Locker without importing the sync package, since
// this module's point is to not lean on sync's own primitives.
type Locker interface {
	Lock()
	Unlock()
}

type rlocker RWMutex

func (r *rlocker) Lock()   { (*RWMutex)(r).RLock() }
func (r *rlocker) Unlock() { (*RWMutex)(r).RUnlock() }
