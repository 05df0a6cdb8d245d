// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncx_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ticketpark/rtsync/syncx"
)

func TestWaitGroupBasic(t *testing.T) {
	var wg syncx.WaitGroup
	var done int32
	const n = 50

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			atomic.AddInt32(&done, 1)
			wg.Done()
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&done); got != n {
		t.Fatalf("done = %d, want %d", got, n)
	}
}

func TestWaitGroupManyWaiters(t *testing.T) {
	var wg syncx.WaitGroup
	wg.Add(1)

	const waiters = 20
	results := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			wg.Wait()
			results <- struct{}{}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	select {
	case <-results:
		t.Fatal("a waiter returned before Done")
	default:
	}

	wg.Done()
	for i := 0; i < waiters; i++ {
		select {
		case <-results:
		case <-time.After(time.Second):
			t.Fatal("not all waiters were released")
		}
	}
}

func TestWaitGroupZeroReturnsImmediately(t *testing.T) {
	var wg syncx.WaitGroup
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait on a zero WaitGroup blocked")
	}
}

func TestWaitGroupNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Add driving the counter negative should panic")
		}
	}()
	var wg syncx.WaitGroup
	wg.Done()
}
