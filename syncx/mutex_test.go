// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncx_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ticketpark/rtsync/syncx"
)

// TestMutualExclusion is spec.md §8 property 2: at most one goroutine is
// ever inside the critical section at once.
func TestMutualExclusion(t *testing.T) {
	var mu syncx.Mutex
	var inside int32
	var wg sync.WaitGroup
	const goroutines = 8
	const iterations = 2000

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				mu.Lock()
				inside++
				if inside != 1 {
					t.Errorf("mutual exclusion violated: inside = %d", inside)
				}
				inside--
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestTryLock(t *testing.T) {
	var mu syncx.Mutex
	if !mu.TryLock() {
		t.Fatal("TryLock on an unlocked Mutex should succeed")
	}
	if mu.TryLock() {
		t.Fatal("TryLock on an already-locked Mutex should fail")
	}
	mu.Unlock()
	if !mu.TryLock() {
		t.Fatal("TryLock after Unlock should succeed")
	}
	mu.Unlock()
}

func TestUnlockOfUnlockedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Unlock of an unlocked Mutex should panic")
		}
	}()
	var mu syncx.Mutex
	mu.Unlock()
}

func TestAssertHeld(t *testing.T) {
	var mu syncx.Mutex
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("AssertHeld on an unheld Mutex should panic")
			}
		}()
		mu.AssertHeld()
	}()

	mu.Lock()
	mu.AssertHeld() // must not panic
	mu.Unlock()
}

// TestStarvationHandoff drives enough contention that lockSlow's
// starvationThreshold trips at least once, and confirms the mutex
// remains self-consistent (no deadlock, no lost wakeups) once it does.
func TestStarvationHandoff(t *testing.T) {
	var mu syncx.Mutex
	var wg sync.WaitGroup
	const goroutines = 20
	done := make(chan struct{})

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				mu.Lock()
				time.Sleep(time.Microsecond)
				mu.Unlock()
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(done)
	wg.Wait()

	// The mutex must still be usable after the stress run.
	mu.Lock()
	mu.Unlock()
}
