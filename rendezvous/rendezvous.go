// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rendezvous implements spec.md component B: a value-less
// semaphore that pairs N acquirers against a single release of N tokens,
// with no external counter to synchronize through (unlike semtable).
// sync.WaitGroup's slow path uses exactly this shape in the real runtime —
// N goroutines parked on Wait(), released together by the last Done().
//
// The queue/spinlock/park-unlock shape is adapted from the teacher's
// nsync.Mu waiter-queue machinery (nsync/mu.go, nsync/waiter.go); what
// changes is that a Semaphore's list holds one role at a time (spec.md
// §3's "Rendezvous Semaphore" invariant) instead of always holding lock
// waiters.
package rendezvous

import "github.com/ticketpark/rtsync/rt"

type waiter struct {
	node     rt.DLL
	sig      rt.ParkSignal
	nrelease int // -1: acquirer. >0: releaser, tokens remaining.
}

// Semaphore is spec.md's rendezvous semaphore. The zero value is ready to
// use.
type Semaphore struct {
	lock    rt.SpinLock
	waiters rt.DLL
	init    bool
}

func (s *Semaphore) lazyInit() {
	if !s.init {
		s.waiters.MakeEmpty()
		s.init = true
	}
}

// Acquire blocks until a releaser provides a token.
func (s *Semaphore) Acquire() {
	s.lock.Lock()
	s.lazyInit()

	if head := s.waiters.Front(); head != nil {
		w := head.Elem.(*waiter)
		if w.nrelease > 0 {
			// Consume one of this releaser's tokens.
			w.nrelease--
			if w.nrelease == 0 {
				head.Remove()
				s.lock.Unlock()
				w.sig.Ready()
				return
			}
			s.lock.Unlock()
			return
		}
	}

	// No releaser present: enqueue self as an acquirer.
	w := &waiter{nrelease: -1}
	w.node.Elem = w
	w.sig.Arm()
	w.node.InsertAfter(s.waiters.Prev())
	s.lock.Unlock()

	w.sig.Wait()
}

// Release provides n tokens, blocking until all n have been consumed by
// acquirers.
func (s *Semaphore) Release(n int) {
	if n <= 0 {
		return
	}
	s.lock.Lock()
	s.lazyInit()

	// Drain the whole queue of waiting acquirers under a single lock hold,
	// the way the real runtime's syncsemrelease does (see
	// wenfang-golang1.6-src/src/runtime/sema.go): dropping and reacquiring
	// s.lock once per woken acquirer would let a second, concurrent Release
	// observe the list transiently empty between two pops of this one and
	// enqueue its own releaser node in the middle of this drain. A releaser
	// at the head means no acquirer is queued (the list holds one role at a
	// time), so the drain stops there and this releaser queues behind it
	// with whatever tokens remain. Collect everyone to wake into woken
	// and call Ready on them only after the whole decision — drain plus
	// enqueue-or-not — is made and the lock is dropped exactly once.
	var woken []*waiter
	for n > 0 {
		head := s.waiters.Front()
		if head == nil {
			break
		}
		w := head.Elem.(*waiter)
		if w.nrelease != -1 {
			// Only releasers are queued: nothing left to drain.
			break
		}
		head.Remove()
		n--
		woken = append(woken, w)
	}

	if n == 0 {
		s.lock.Unlock()
		for _, w := range woken {
			w.sig.Ready()
		}
		return
	}

	w := &waiter{nrelease: n}
	w.node.Elem = w
	w.sig.Arm()
	w.node.InsertAfter(s.waiters.Prev())
	s.lock.Unlock()

	for _, wk := range woken {
		wk.sig.Ready()
	}
	w.sig.Wait()
}
