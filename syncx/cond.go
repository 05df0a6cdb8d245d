// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncx

import "github.com/ticketpark/rtsync/notifylist"

// Cond implements a condition variable the way the real sync.Cond is built
// on runtime.notifyList: Wait issues a ticket before releasing L, so a
// Signal or Broadcast that runs between the ticket and the park can never
// be missed, exactly per spec.md §4.C's FIFO ticket design. Signal and
// Broadcast map directly onto notifylist.NotifyOne/NotifyAll.
//
// Cond must not be copied after first use.
type Cond struct {
	// L is held while observing or changing the condition.
	L Locker

	list notifylist.List
}

// NewCond returns a new Cond with Locker l.
func NewCond(l Locker) *Cond {
	return &Cond{L: l}
}

// Wait atomically unlocks c.L and suspends the calling goroutine. After
// later resuming execution, Wait locks c.L before returning. Unlike in
// many condition variable implementations, Wait cannot return unless
// awoken by Broadcast or Signal.
//
// Because c.L is not locked while Wait is waiting, the caller typically
// cannot assume the condition is true when Wait returns; instead, the
// caller should loop: `for !condition() { c.Wait() }`.
func (c *Cond) Wait() {
	t := c.list.Add()
	c.L.Unlock()
	c.list.Wait(t)
	c.L.Lock()
}

// Signal wakes one goroutine waiting on c, if any.
//
// It is allowed but not required for the caller to hold c.L during the
// call.
func (c *Cond) Signal() {
	c.list.NotifyOne()
}

// Broadcast wakes all goroutines waiting on c.
//
// It is allowed but not required for the caller to hold c.L during the
// call.
func (c *Cond) Broadcast() {
	c.list.NotifyAll()
}
