/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package testplugin is a deterministic plugin used to exercise the runner:
// it counts scheduler ticks until cancellation and reports the count as a
// single-sample series.
package testplugin

import (
	"sync/atomic"
	"time"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

const pluginName = "TestPlugin"

type (
	Plugin struct {
		counter atomic.Int64
		tstart  time.Time
	}
)

var schema = api.Schema{}

func New(params map[string]interface{}) (*Plugin, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}
	return &Plugin{}, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func (p *Plugin) MetricNames() []string {
	return []string{"counter"}
}

func (p *Plugin) OnStart() error {
	p.tstart = time.Now()
	p.counter.Store(0)
	return nil
}

func (p *Plugin) Run(stop *util.StopSignal) {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-stop.C:
			return
		case <-tick.C:
			p.counter.Add(1)
		}
	}
}

func (p *Plugin) OnEnd() api.PhaseResult {
	now := time.Now()
	count := float64(p.counter.Load())
	return api.PhaseResult{
		"counter": {
			TStart:     util.FormatTimestamp(p.tstart),
			TEnd:       util.FormatTimestamp(now),
			Values:     []float64{count},
			Statistics: api.Statistics{Min: count, Mean: count, Max: count},
		},
	}
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
