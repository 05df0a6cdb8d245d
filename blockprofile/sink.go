// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blockprofile implements the real rt.BlockSink spec.md §6
// describes as "a real implementation lives in package blockprofile": it
// records every sampled block event and renders them as a simple report,
// one line per event, and Timer (timer.go) nests the per-scenario timing
// tree cmd/rtsyncbench prints at the end of a run.
package blockprofile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ticketpark/rtsync/syncx"
)

// Sink collects block-profiling events reported through rt.Blockevent.
// The zero value is not ready to use; construct one with NewSink. log may
// be nil to disable the per-event debug log line.
type Sink struct {
	mu     syncx.Mutex
	events []*interval
	log    *zap.Logger
}

// NewSink returns a Sink that also logs each event at debug level through
// log. log may be nil.
func NewSink(log *zap.Logger) *Sink {
	return &Sink{log: log}
}

// Event implements rt.BlockSink. cycles is the blocked duration in the
// nanosecond units rt.Cputicks uses; skip is the number of frames the
// caller has already unwound past its own blocking primitive.
func (s *Sink) Event(cycles int64, skip int) {
	now := time.Now()
	start := now.Add(-time.Duration(cycles))

	s.mu.Lock()
	s.events = append(s.events, &interval{
		name:  fmt.Sprintf("block[skip=%d]", skip),
		start: start,
		end:   now,
	})
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debug("block event",
			zap.Duration("blocked", time.Duration(cycles)),
			zap.Int("skip", skip),
		)
	}
}

// String renders every event recorded so far, one line per event, under a
// "block profile" heading.
func (s *Sink) String() string {
	s.mu.Lock()
	events := append([]*interval(nil), s.events...)
	s.mu.Unlock()

	root := &interval{name: "block profile", children: events}
	if n := len(events); n > 0 {
		root.start = events[0].start
		root.end = events[n-1].end
	} else {
		root.start = time.Now()
		root.end = root.start
	}
	return formatTree(root)
}

// Reset discards every recorded event.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// Len returns the number of events recorded so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
