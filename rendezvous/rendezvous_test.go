// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendezvous_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ticketpark/rtsync/rendezvous"
)

// TestReleaseFirst is spec.md §8 scenario S4: a release of N tokens with
// an empty list parks the releaser; N successive acquires each consume one
// token, and the last one wakes the releaser.
func TestReleaseFirst(t *testing.T) {
	var s rendezvous.Semaphore

	releaseDone := make(chan struct{})
	go func() {
		s.Release(3)
		close(releaseDone)
	}()

	time.Sleep(10 * time.Millisecond) // give the releaser a chance to park.
	select {
	case <-releaseDone:
		t.Fatal("Release(3) returned before any tokens were consumed")
	default:
	}

	s.Acquire()
	s.Acquire()
	select {
	case <-releaseDone:
		t.Fatal("Release(3) returned before all 3 tokens were consumed")
	default:
	}
	s.Acquire()

	<-releaseDone
}

// TestAcquireFirst is spec.md §8 scenario S5: acquirers queued first are
// drained without parking by a single Release(n).
func TestAcquireFirst(t *testing.T) {
	var s rendezvous.Semaphore

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.Acquire() }()
	go func() { defer wg.Done(); s.Acquire() }()

	time.Sleep(10 * time.Millisecond) // give both acquirers a chance to park.
	s.Release(2)
	wg.Wait()
}

// TestManyToMany stresses the semaphore with many concurrent acquirers and
// releasers of varying sizes; the total tokens produced and consumed must
// balance, and nothing may hang.
func TestManyToMany(t *testing.T) {
	var s rendezvous.Semaphore
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() { defer wg.Done(); s.Acquire() }()
		go func() { defer wg.Done(); s.Release(1) }()
	}
	wg.Wait()
}

// TestConcurrentMultiTokenRelease runs many concurrent Release calls that
// each carry more than one token, racing against each other rather than
// against a steady stream of Acquire calls. Releases that find no acquirer
// queue behind each other and are satisfied in turn; every call must
// return once its tokens are consumed, with nothing hanging or panicking.
func TestConcurrentMultiTokenRelease(t *testing.T) {
	var s rendezvous.Semaphore
	const rounds = 500
	const tokensPerRound = 3

	var wg sync.WaitGroup
	wg.Add(rounds * (1 + tokensPerRound))
	for i := 0; i < rounds; i++ {
		go func() { defer wg.Done(); s.Release(tokensPerRound) }()
		for j := 0; j < tokensPerRound; j++ {
			go func() { defer wg.Done(); s.Acquire() }()
		}
	}
	wg.Wait()
}
