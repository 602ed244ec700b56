/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package gpupower reports the total power draw of all NVIDIA GPUs in
// watts, queried through nvidia-smi.
package gpupower

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

const (
	pluginName = "GpuPowerPlugin"
	smiCommand = "nvidia-smi --query-gpu=power.draw --format=csv,noheader"
)

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
	p.Collector = timeseries.NewCollector("gpu-power", intervalMins, "W", collect)
	return p, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func collect() (float64, error) {
	out, err := util.RunCommand(smiCommand, util.DefaultCommandTimeout)
	if err != nil {
		return 0, err
	}
	return parsePowerDraw(out)
}

// parsePowerDraw sums the per-GPU readings. nvidia-smi prints one line per
// GPU, e.g. "71.45 W"; GPUs reporting "[N/A]" are skipped.
func parsePowerDraw(output string) (float64, error) {
	sum := 0.0
	n := 0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, " W")
		watts, err := cast.ToFloat64E(line)
		if err != nil {
			logger.Warnf("[plugin] %s: skipping reading %q", pluginName, line)
			continue
		}
		sum += watts
		n++
	}
	if n == 0 {
		return 0, errors.New("no GPU power reading available")
	}
	return sum, nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
