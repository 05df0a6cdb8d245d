// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blockprofile_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ticketpark/rtsync/blockprofile"
	"github.com/ticketpark/rtsync/rt"
)

func TestSinkRecordsEvents(t *testing.T) {
	s := blockprofile.NewSink(nil)
	s.Event(int64(5*time.Millisecond), 0)
	s.Event(int64(10*time.Millisecond), 1)

	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	out := s.String()
	if !strings.Contains(out, "block[skip=0]") || !strings.Contains(out, "block[skip=1]") {
		t.Fatalf("report missing expected labels:\n%s", out)
	}
}

func TestSinkReset(t *testing.T) {
	s := blockprofile.NewSink(nil)
	s.Event(1, 0)
	s.Reset()
	if got := s.Len(); got != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", got)
	}
}

// TestWiredThroughRT confirms a blockprofile.Sink installed via
// rt.SetBlockSink actually receives events from rt.Blockevent, exercising
// the full path semtable/notifylist/rendezvous use to report blocking.
func TestWiredThroughRT(t *testing.T) {
	s := blockprofile.NewSink(nil)
	rt.SetBlockSink(s)
	rt.SetBlockProfileRate(1)
	defer func() {
		rt.SetBlockSink(nil)
		rt.SetBlockProfileRate(0)
	}()

	rt.Blockevent(int64(time.Millisecond), 0)

	if got := s.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 after a sampled Blockevent", got)
	}
}
