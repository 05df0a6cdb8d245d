// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/ticketpark/rtsync/notifylist"
	"github.com/ticketpark/rtsync/rendezvous"
	"github.com/ticketpark/rtsync/semtable"
	"github.com/ticketpark/rtsync/syncx"
)

// scenario is one of spec.md §8's named concurrency scenarios (S1-S7): a
// short, deterministic-up-to-scheduling drill that exercises one specific
// race in one of the three components, distinct from the longer open-ended
// stress scenario.
type scenario func() error

// scenarioOrder is the order "all" runs scenarios in.
var scenarioOrder = []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "stress"}

func withTimeout(d time.Duration, f func()) error {
	done := make(chan struct{})
	go func() { f(); close(done) }()
	select {
	case <-done:
		return nil
	case <-time.After(d):
		return fmt.Errorf("timed out after %s", d)
	}
}

// s1 is spec.md scenario S1: a paired acquire/release with no contention
// beyond the one waiter.
func s1() error {
	tbl := semtable.New()
	var x semtable.Counter
	x.Store(1)

	return withTimeout(time.Second, func() {
		tbl.Acquire(&x, false) // fast path, x: 1 -> 0
		done := make(chan struct{})
		go func() {
			tbl.Acquire(&x, false) // blocks
			close(done)
		}()
		time.Sleep(10 * time.Millisecond)
		tbl.Release(&x) // x: 0 -> 1, wakes the waiter
		<-done
	})
}

// s2 is spec.md scenario S2: the nwait-barrier race between a slow-path
// acquirer and a concurrent release.
func s2() error {
	tbl := semtable.New()
	var x semtable.Counter // starts at 0

	return withTimeout(time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl.Acquire(&x, false)
		}()
		time.Sleep(10 * time.Millisecond) // let T1 reach the slow path and park
		tbl.Release(&x)
		wg.Wait()
	})
}

// s3 is spec.md scenario S3: a third acquirer steals the slot a release
// just handed to a parked waiter, forcing the waiter to loop and re-park.
func s3() error {
	tbl := semtable.New()
	var x semtable.Counter // starts at 0

	return withTimeout(time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			tbl.Acquire(&x, false) // T1: parks, gets woken, may need to re-park
		}()
		time.Sleep(10 * time.Millisecond)

		tbl.Release(&x) // x: 0 -> 1, wakes T1
		go func() {
			defer wg.Done()
			tbl.Acquire(&x, false) // T3: races T1 for the same slot
		}()
		tbl.Release(&x) // in case T3 needed its own slot
		wg.Wait()
	})
}

// s4 is spec.md scenario S4: Release arrives first and parks; three
// Acquire calls drain its token count to zero.
func s4() error {
	var sem rendezvous.Semaphore

	return withTimeout(time.Second, func() {
		done := make(chan struct{})
		go func() {
			sem.Release(3)
			close(done)
		}()
		time.Sleep(10 * time.Millisecond)
		sem.Acquire()
		sem.Acquire()
		sem.Acquire()
		<-done
	})
}

// s5 is spec.md scenario S5: two Acquire calls park first; a single
// Release(2) drains both without parking itself.
func s5() error {
	var sem rendezvous.Semaphore

	return withTimeout(time.Second, func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); sem.Acquire() }()
		go func() { defer wg.Done(); sem.Acquire() }()
		time.Sleep(10 * time.Millisecond)
		sem.Release(2)
		wg.Wait()
	})
}

// s6 is spec.md scenario S6: NotifyAll runs before the matching Wait, so
// Wait observes its ticket already satisfied and returns immediately.
func s6() error {
	var l notifylist.List
	ticket := l.Add()
	l.NotifyAll()
	return withTimeout(time.Second, func() {
		l.Wait(ticket) // must not block
	})
}

// s7 is spec.md scenario S7: two outstanding tickets, and NotifyOne wakes
// them in strict ticket order, one at a time.
func s7() error {
	var l notifylist.List
	t0 := l.Add()
	t1 := l.Add()

	return withTimeout(time.Second, func() {
		w0 := make(chan struct{})
		w1 := make(chan struct{})
		go func() { l.Wait(t0); close(w0) }()
		go func() { l.Wait(t1); close(w1) }()
		time.Sleep(10 * time.Millisecond)

		l.NotifyOne()
		<-w0
		select {
		case <-w1:
			panic("notify_one woke ticket 1 before ticket 0")
		default:
		}
		l.NotifyOne()
		<-w1
	})
}

// stress runs goroutines goroutines, each locking a shared syncx.Mutex
// iterations times, to exercise spec.md property 2 (mutual exclusion)
// under sustained contention rather than a single scripted race.
func stress(goroutines, iterations int) scenario {
	return func() error {
		var mu syncx.Mutex
		var inside int32
		var wg sync.WaitGroup

		wg.Add(goroutines)
		violated := make(chan struct{}, 1)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					mu.Lock()
					inside++
					if inside != 1 {
						select {
						case violated <- struct{}{}:
						default:
						}
					}
					inside--
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		select {
		case <-violated:
			return fmt.Errorf("mutual exclusion violated under contention")
		default:
			return nil
		}
	}
}
