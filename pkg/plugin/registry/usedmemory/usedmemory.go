/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package usedmemory reports used system memory in GiB.
package usedmemory

import (
	"math"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
)

const pluginName = "UsedMemoryPlugin"

const bytesPerGiB = 1024 * 1024 * 1024

type (
	Plugin struct {
		*timeseries.Collector
	}
)

var schema = api.Schema{
	Required: []string{"interval_mins"},
}

func New(params map[string]interface{}) (*Plugin, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}
	intervalMins, err := cast.ToFloat64E(params["interval_mins"])
	if err != nil || intervalMins <= 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "interval_mins must be a positive number"}
	}

	p := &Plugin{}
	p.Collector = timeseries.NewCollector("used-memory", intervalMins, "GiB", collect)
	return p, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func collect() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	gib := float64(vm.Used) / bytesPerGiB
	return math.Round(gib*100) / 100, nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
