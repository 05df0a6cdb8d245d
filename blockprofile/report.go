// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blockprofile

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// interval is a single named, timestamped span, optionally nesting
// children: Timer uses the nesting to track a scenario's sub-phases,
// Sink uses a flat one-level list to hold its sampled events. No
// third-party column-formatting or tree-printing library appears
// anywhere in the example pack, so rendering goes through the standard
// library's text/tabwriter.
type interval struct {
	name     string
	start    time.Time
	end      time.Time
	children []*interval
}

func (iv *interval) duration() time.Duration {
	if iv.end.IsZero() {
		return time.Since(iv.start)
	}
	return iv.end.Sub(iv.start)
}

func formatTree(root *interval) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	writeInterval(tw, root, 0)
	tw.Flush()
	return buf.String()
}

func writeInterval(w *tabwriter.Writer, iv *interval, depth int) {
	fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat("  ", depth), iv.name, iv.duration())
	for _, c := range iv.children {
		writeInterval(w, c, depth+1)
	}
}
