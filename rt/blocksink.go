// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rt

import (
	"math/rand"
	"sync/atomic"
)

// BlockSink is the block-profiling event sink spec.md §6 lists as consumed
// from the runtime: blockevent(cycles, skip). A real implementation lives
// in package blockprofile; rt only owns the rate knob and the sampling
// decision, since that part is genuinely runtime-level (every component
// that can block needs it) rather than specific to any one sink.
type BlockSink interface {
	Event(cycles int64, skip int)
}

type noopSink struct{}

func (noopSink) Event(int64, int) {}

// sinkHolder wraps every installed BlockSink so that sink always stores the
// same concrete type, as atomic.Value requires.
type sinkHolder struct{ BlockSink }

var (
	sink atomic.Value // holds a sinkHolder
	rate atomic.Int64
)

func init() {
	sink.Store(sinkHolder{noopSink{}})
}

// SetBlockSink installs the sink that Blockevent reports to. Passing nil
// disables reporting regardless of the rate.
func SetBlockSink(s BlockSink) {
	if s == nil {
		s = noopSink{}
	}
	sink.Store(sinkHolder{s})
}

// SetBlockProfileRate sets the sampling rate, in the same units as
// runtime.SetBlockProfileRate: report roughly one sample per rate cputicks
// of blocking. A rate <= 0 disables profiling entirely.
func SetBlockProfileRate(r int64) {
	rate.Store(r)
}

// ShouldSample reports whether a block event lasting cycles ticks should be
// reported, applying the same rate-based coin flip the real runtime uses so
// that short, frequent waits don't dominate the profile.
func ShouldSample(cycles int64) bool {
	r := rate.Load()
	if r <= 0 {
		return false
	}
	if cycles >= r {
		return true
	}
	return int64(rand.Int63())%r < cycles
}

// Blockevent reports a completed block of the given duration (in the units
// Cputicks uses) to the installed sink, if sampling selects it. skip is the
// number of stack frames to skip when the sink captures a trace.
func Blockevent(cycles int64, skip int) {
	if !ShouldSample(cycles) {
		return
	}
	sink.Load().(BlockSink).Event(cycles, skip+1)
}
