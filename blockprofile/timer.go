// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blockprofile

import "time"

// Timer nests the per-scenario interval tree cmd/rtsyncbench prints at the
// end of a run: Push a scenario's name before running it, Pop when it
// finishes, Finish once all scenarios are done, then read String for the
// report.
type Timer struct {
	root  *interval
	stack []*interval
}

// NewTimer returns a Timer ready to time a run named root.
func NewTimer(root string) *Timer {
	r := &interval{name: root, start: time.Now()}
	return &Timer{root: r, stack: []*interval{r}}
}

// Push starts timing a named phase nested under the current one.
func (t *Timer) Push(name string) {
	parent := t.stack[len(t.stack)-1]
	child := &interval{name: name, start: time.Now()}
	parent.children = append(parent.children, child)
	t.stack = append(t.stack, child)
}

// Pop ends the current phase and returns to its parent. Pop on the root
// does nothing.
func (t *Timer) Pop() {
	if len(t.stack) <= 1 {
		return
	}
	last := len(t.stack) - 1
	t.stack[last].end = time.Now()
	t.stack = t.stack[:last]
}

// Finish closes every still-open interval, including the root.
func (t *Timer) Finish() {
	end := time.Now()
	for _, iv := range t.stack {
		iv.end = end
	}
	t.stack = t.stack[:1]
}

// String renders the timed tree, one line per interval, indented by
// nesting depth.
func (t *Timer) String() string {
	return formatTree(t.root)
}
