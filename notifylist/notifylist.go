// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package notifylist implements spec.md component C: a FIFO, ticket-based
// wait/notify list — the primitive sync.Cond is built from in the real
// runtime (runtime.notifyList / runtime_notifyListAdd &c., see
// veezhang-go1.12.9-annotated/src/runtime/sema.go, which this package's
// ticket arithmetic follows directly). syncx.Cond is this module's client.
//
// The waiter queue and spinlock shape again come from the teacher's
// nsync.CV (nsync/cv.go): Signal/Broadcast there walk a spinlock-protected
// waiter list and call Ready outside the lock exactly as NotifyOne/NotifyAll
// do here. What nsync.CV does not have is the ticket: nsync dequeues
// whichever waiter is physically at the head of the list, which is
// sufficient for a Mesa-style condition variable (spec.md §9 explains why
// that's fine there), but spec.md component C requires strict FIFO by
// issue order even when NotifyOne and Wait's enqueue race, which is what
// the monotonic wait/notify counters provide.
package notifylist

import "github.com/ticketpark/rtsync/rt"

// List is spec.md's ticket notification list. The zero value is ready to
// use.
type List struct {
	wait    rt.Word // next ticket to issue; atomic, no lock needed.
	notify  rt.Word // next ticket to notify; atomic read, written under lock.
	lock    rt.SpinLock
	waiters rt.DLL
	init    bool
}

type waiterC struct {
	node   rt.DLL
	sig    rt.ParkSignal
	ticket uint32
}

func (l *List) lazyInit() {
	if !l.init {
		l.waiters.MakeEmpty()
		l.init = true
	}
}

// less implements the wrap-tolerant "a < b" relation spec.md §3/§4.C
// specifies: (int32)(a-b) < 0, correct whenever the true unwrapped gap is
// less than 2^31.
func less(a, b uint32) bool {
	return int32(a-b) < 0
}

// Add issues the next ticket. It never blocks and may be called
// concurrently, including by a caller already holding some other lock
// (e.g. a condition variable's outer mutex), since it takes no lock of its
// own.
func (l *List) Add() uint32 {
	return l.wait.Add(1) - 1
}

// Wait blocks until ticket t is notified (by NotifyOne or NotifyAll), or
// returns immediately if it already has been.
func (l *List) Wait(t uint32) {
	l.lock.Lock()
	l.lazyInit()
	if less(t, l.notify.Load()) {
		l.lock.Unlock()
		return
	}

	w := &waiterC{ticket: t}
	w.node.Elem = w
	w.sig.Arm()
	w.node.InsertAfter(l.waiters.Prev())
	l.lock.Unlock()

	start := rt.Cputicks()
	w.sig.Wait()
	rt.Blockevent(rt.Cputicks()-start, 2)
}

// NotifyAll wakes every waiter currently enqueued.
func (l *List) NotifyAll() {
	if l.wait.Load() == l.notify.Load() {
		return
	}

	l.lock.Lock()
	l.lazyInit()
	detached := l.waiters.Detach()
	l.notify.Store(l.wait.Load())
	l.lock.Unlock()

	for p := detached; p != nil; {
		next := p.Next()
		p.Elem.(*waiterC).sig.Ready()
		if next == detached {
			break
		}
		p = next
	}
}

// NotifyOne wakes the waiter with the smallest outstanding ticket, if any.
// If that waiter has issued its ticket (via Add) but has not yet reached
// Wait, NotifyOne still advances notify past it: the waiter will observe
// the updated notify on its own Wait call and return without parking,
// because Add happens-before Wait's enqueue-or-shortcut decision.
func (l *List) NotifyOne() {
	if l.wait.Load() == l.notify.Load() {
		return
	}

	l.lock.Lock()
	l.lazyInit()
	t := l.notify.Load()
	if t == l.wait.Load() {
		l.lock.Unlock()
		return
	}
	l.notify.Store(t + 1)

	var found *waiterC
	for p := l.waiters.Front(); p != nil && p != &l.waiters; p = p.Next() {
		if w := p.Elem.(*waiterC); w.ticket == t {
			found = w
			p.Remove()
			break
		}
	}
	l.lock.Unlock()

	if found != nil {
		found.sig.Ready()
	}
}
