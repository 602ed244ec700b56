/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package interval turns a collect-once action into a time-disciplined
// repeating loop. Collection periods are clamped to a global minimum
// granularity so that no metric can be configured to hammer the host while
// a benchmark is running.
package interval

import (
	"math"
	"time"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

// DefaultGranularity is the lower bound on any sampling period, regardless
// of the configured interval.
const DefaultGranularity = 10 * time.Second

type (
	Loop struct {
		period  time.Duration
		execute func()
	}
)

// EffectivePeriod converts a configured interval in minutes into the period
// actually used by the loop: rounded to the nearest multiple of the
// granularity and never below it. An interval of 18s and one of 20s end up
// on the same 20s schedule.
func EffectivePeriod(intervalMins float64, granularity time.Duration) time.Duration {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	secs := intervalMins * 60
	rounded := math.Round(secs/granularity.Seconds()) * granularity.Seconds()
	if rounded < granularity.Seconds() {
		return granularity
	}
	return time.Duration(rounded * float64(time.Second))
}

// NewLoop builds a loop invoking execute every period. A panic inside
// execute is logged and the loop continues at the next tick.
func NewLoop(period time.Duration, execute func()) *Loop {
	return &Loop{period: period, execute: execute}
}

// Run executes once immediately, then repeats every period until the stop
// signal fires. Waits are drift-corrected against the loop start time, so a
// slow execution does not shift the schedule. Once cancellation has been
// observed, execute is never invoked again and Run returns promptly.
func (l *Loop) Run(stop *util.StopSignal) {
	start := time.Now()
	l.runOnce()

	timer := time.NewTimer(l.untilNextTick(start))
	defer timer.Stop()

	for {
		select {
		case <-stop.C:
			return
		case <-timer.C:
			if stop.IsStopAsked() {
				return
			}
			l.runOnce()
			timer.Reset(l.untilNextTick(start))
		}
	}
}

func (l *Loop) untilNextTick(start time.Time) time.Duration {
	elapsed := time.Since(start) % l.period
	return l.period - elapsed
}

func (l *Loop) runOnce() {
	util.WithRecover(l.execute)
}
