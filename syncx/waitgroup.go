// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncx

import (
	"github.com/ticketpark/rtsync/notifylist"
	"github.com/ticketpark/rtsync/rt"
)

// WaitGroup waits for a collection of goroutines to finish. Unlike the real
// sync.WaitGroup (veezhang-go1.12.9-annotated/src/sync/waitgroup.go), which
// packs a counter and a waiter count into one 64-bit word so a single CAS
// can update both, this WaitGroup keeps the counter under an ordinary
// spinlock and hands the actual blocking off to a notifylist.List: counter
// mutation and ticket issuance both happen under the same lock, so a Wait
// that observes counter > 0 and a concurrent Add that drives it to 0 can
// never race past each other the way the spec.md §8 no-missed-wakeup
// property requires.
//
// The zero value is a WaitGroup with counter 0. A WaitGroup must not be
// copied after first use.
type WaitGroup struct {
	lock    rt.SpinLock
	counter int32
	list    notifylist.List
}

// Add adds delta, which may be negative, to the counter. If the counter
// becomes zero, every goroutine blocked in Wait is released. If the
// counter goes negative, Add panics.
//
// As with the real WaitGroup, calls with a positive delta that start when
// the counter is zero must happen before any Wait call, and a WaitGroup
// must not be reused for a new round until all Waits from the previous
// round have returned.
func (wg *WaitGroup) Add(delta int) {
	wg.lock.Lock()
	wg.counter += int32(delta)
	c := wg.counter
	wg.lock.Unlock()

	if c < 0 {
		panic("rtsync/syncx: negative WaitGroup counter")
	}
	if c == 0 {
		wg.list.NotifyAll()
	}
}

// Done decrements the WaitGroup counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait blocks until the counter is zero.
func (wg *WaitGroup) Wait() {
	wg.lock.Lock()
	if wg.counter == 0 {
		wg.lock.Unlock()
		return
	}
	ticket := wg.list.Add()
	wg.lock.Unlock()

	wg.list.Wait(ticket)
}
