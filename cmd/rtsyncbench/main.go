// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rtsyncbench drives the scenarios spec.md §8 names (S1-S7) plus an
// open-ended stress run against the rt/semtable/rendezvous/notifylist/syncx
// packages, reporting pass/fail for each and, optionally, a block-profiling
// report of every park/wake it sampled along the way.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ticketpark/rtsync/blockprofile"
	"github.com/ticketpark/rtsync/rt"
)

var (
	scenarioFlag   = pflag.StringP("scenario", "s", "all", "scenario to run: s1-s7, stress, or all")
	goroutinesFlag = pflag.IntP("goroutines", "g", 8, "goroutine count for the stress scenario")
	iterationsFlag = pflag.IntP("iterations", "n", 20000, "iterations per goroutine for the stress scenario")
	blockRateFlag  = pflag.Int64("block-profile-rate", 0, "sample roughly one block event per this many nanoseconds blocked; 0 disables profiling")
	verboseFlag    = pflag.BoolP("verbose", "v", false, "enable debug-level logging")
)

func main() {
	pflag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*verboseFlag {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtsyncbench: build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sink := blockprofile.NewSink(logger)
	if *blockRateFlag > 0 {
		rt.SetBlockSink(sink)
		rt.SetBlockProfileRate(*blockRateFlag)
	}

	scenarios := map[string]scenario{
		"s1":     s1,
		"s2":     s2,
		"s3":     s3,
		"s4":     s4,
		"s5":     s5,
		"s6":     s6,
		"s7":     s7,
		"stress": stress(*goroutinesFlag, *iterationsFlag),
	}

	timer := blockprofile.NewTimer("rtsyncbench")
	failed := false
	run := func(name string) {
		fn, ok := scenarios[name]
		if !ok {
			logger.Fatal("unknown scenario", zap.String("scenario", name))
		}
		timer.Push(name)
		err := fn()
		timer.Pop()
		if err != nil {
			failed = true
			logger.Error("scenario failed", zap.String("scenario", name), zap.Error(err))
			return
		}
		logger.Info("scenario passed", zap.String("scenario", name))
	}

	if *scenarioFlag == "all" {
		for _, name := range scenarioOrder {
			run(name)
		}
	} else {
		run(*scenarioFlag)
	}
	timer.Finish()

	fmt.Println(timer.String())
	if *blockRateFlag > 0 {
		fmt.Println(sink.String())
	}
	if failed {
		os.Exit(1)
	}
}
