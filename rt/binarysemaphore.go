// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rt

// binarySemaphore is a semaphore that can only hold the values 0 and 1. It
// is the "ready"/"park" transport underneath ParkSignal: the dequeuer's V()
// always happens-before the sleeper's matching P() returns, which is the
// only ordering ParkSignal relies on.
type binarySemaphore struct {
	ch chan struct{}
}

func (s *binarySemaphore) init() {
	s.ch = make(chan struct{}, 1)
}

// P waits until the semaphore's count is 1, then decrements it to 0.
func (s *binarySemaphore) P() {
	<-s.ch
}

// V ensures the semaphore's count is 1. Calling V twice without an
// intervening P is a no-op on the second call, which is what makes it
// safe for a ready() that might race a park() that hasn't happened yet.
func (s *binarySemaphore) V() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
