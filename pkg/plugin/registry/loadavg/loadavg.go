/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package loadavg reports the 1-minute system load average.
package loadavg

import (
	"github.com/shirou/gopsutil/v3/load"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
)

const pluginName = "LoadAveragePlugin"

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
	p.Collector = timeseries.NewCollector("load-average", intervalMins, "", collect)
	return p, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func collect() (float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return 0, err
	}
	return avg.Load1, nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
