/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package cpufreq reports the current CPU frequency in kHz, averaged over
// all online CPUs, read from sysfs cpufreq scaling data.
package cpufreq

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
)

const (
	pluginName  = "CpuFrequencyPlugin"
	cpuBasePath = "/sys/devices/system/cpu"
)

type (
	Plugin struct {
		*timeseries.Collector
		freqPaths []string
	}
)

var schema = api.Schema{
	Required: []string{"interval_mins"},
}

func New(params map[string]interface{}) (*Plugin, error) {
	return newWithBasePath(params, cpuBasePath)
}

func newWithBasePath(params map[string]interface{}, basePath string) (*Plugin, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}
	intervalMins, err := cast.ToFloat64E(params["interval_mins"])
	if err != nil || intervalMins <= 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "interval_mins must be a positive number"}
	}

	paths, err := findFreqPaths(basePath)
	if err != nil {
		return nil, err
	}

	p := &Plugin{freqPaths: paths}
	p.Collector = timeseries.NewCollector("cpu-frequency", intervalMins, "kHz", p.collect)
	return p, nil
}

func findFreqPaths(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", basePath)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "cpu") {
			continue
		}
		if _, err := strconv.Atoi(name[3:]); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(basePath, name, "cpufreq", "scaling_cur_freq"))
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no CPUs found under %s", basePath)
	}
	return paths, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

// collect averages scaling_cur_freq over all CPUs. Individual unreadable
// CPUs are skipped with a warning; the tick fails only when none could be
// read.
func (p *Plugin) collect() (float64, error) {
	sum := 0.0
	n := 0
	for _, path := range p.freqPaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warnf("[plugin] %s: %v", pluginName, err)
			continue
		}
		khz, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			logger.Warnf("[plugin] %s: invalid value in %s", pluginName, path)
			continue
		}
		sum += khz
		n++
	}
	if n == 0 {
		return 0, errors.New("no CPU frequency could be read")
	}
	return sum / float64(n), nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
