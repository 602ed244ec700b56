/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package timeseries accumulates timestamped samples during one phase and
// summarizes them into a metric result at phase end.
package timeseries

import (
	"sync"
	"time"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

type (
	Sample struct {
		Time  time.Time
		Value float64
	}

	// Timeseries is an ordered sequence of samples collected during one
	// phase by one metric. The mutex only guards against an abandoned
	// run loop still appending while the next phase clears the buffer.
	Timeseries struct {
		name string

		mu      sync.Mutex
		samples []Sample
	}
)

func New(name string) *Timeseries {
	return &Timeseries{name: name}
}

func (t *Timeseries) Name() string {
	return t.name
}

func (t *Timeseries) Clear() {
	t.mu.Lock()
	t.samples = nil
	t.mu.Unlock()
}

func (t *Timeseries) Append(value float64) {
	t.AppendAt(time.Now(), value)
}

func (t *Timeseries) AppendAt(ts time.Time, value float64) {
	t.mu.Lock()
	t.samples = append(t.samples, Sample{Time: ts, Value: value})
	t.mu.Unlock()
}

func (t *Timeseries) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

func (t *Timeseries) Values() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := make([]float64, len(t.samples))
	for i, s := range t.samples {
		values[i] = s.Value
	}
	return values
}

// Statistics computes min, arithmetic mean and max over the collected
// values. The second return is false when nothing was collected.
func (t *Timeseries) Statistics() (api.Statistics, bool) {
	values := t.Values()
	if len(values) == 0 {
		return api.Statistics{}, false
	}

	stats := api.Statistics{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Mean = sum / float64(len(values))
	return stats, true
}

// Result summarizes the series for one phase window. With zero samples it
// returns the empty result, distinguishing "ran but observed nothing" from
// a populated series.
func (t *Timeseries) Result(tstart, tend time.Time, config map[string]interface{}) api.MetricResult {
	stats, ok := t.Statistics()
	if !ok {
		return api.MetricResult{}
	}

	return api.MetricResult{
		TStart:     util.FormatTimestamp(tstart),
		TEnd:       util.FormatTimestamp(tend),
		Values:     t.Values(),
		Statistics: stats,
		Config:     config,
	}
}
