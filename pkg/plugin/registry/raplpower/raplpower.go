/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package raplpower derives package power draw in watts from the Intel RAPL
// energy counters exposed through the powercap sysfs interface.
package raplpower

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
)

const (
	pluginName   = "RaplPowerPlugin"
	powercapBase = "/sys/class/powercap"
	raplPrefix   = "intel-rapl:"
)

type (
	Plugin struct {
		*timeseries.Collector
		energyPaths []string

		lastJoules float64
		lastRead   time.Time
	}
)

var schema = api.Schema{
	Required: []string{"interval_mins"},
}

func New(params map[string]interface{}) (*Plugin, error) {
	return newWithBasePath(params, powercapBase)
}

func newWithBasePath(params map[string]interface{}, basePath string) (*Plugin, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}
	intervalMins, err := cast.ToFloat64E(params["interval_mins"])
	if err != nil || intervalMins <= 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "interval_mins must be a positive number"}
	}

	paths, err := findEnergyPaths(basePath)
	if err != nil {
		return nil, err
	}

	p := &Plugin{energyPaths: paths}
	p.Collector = timeseries.NewCollector("rapl-power", intervalMins, "W", p.collect)
	return p, nil
}

func findEnergyPaths(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, errors.Wrap(err, "powercap interface not available")
	}

	var paths []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), raplPrefix) {
			continue
		}
		path := filepath.Join(basePath, entry.Name(), "energy_uj")
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no RAPL energy counters under %s", basePath)
	}
	return paths, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func (p *Plugin) OnStart() error {
	p.lastJoules = 0
	p.lastRead = time.Time{}
	return p.Collector.OnStart()
}

// collect reads the summed energy counters and differentiates against the
// previous reading. The first tick of a phase only seeds the baseline and
// produces no sample.
func (p *Plugin) collect() (float64, error) {
	joules, err := p.readEnergyJoules()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	if p.lastRead.IsZero() {
		p.lastJoules = joules
		p.lastRead = now
		return 0, timeseries.ErrNoSample
	}

	deltaJ := joules - p.lastJoules
	deltaT := now.Sub(p.lastRead).Seconds()
	p.lastJoules = joules
	p.lastRead = now

	if deltaT <= 0 || deltaJ < 0 {
		// Counter wrapped around its max_energy_range_uj.
		return 0, errors.New("energy counter wrapped, sample dropped")
	}
	return deltaJ / deltaT, nil
}

func (p *Plugin) readEnergyJoules() (float64, error) {
	totalMicroJ := 0.0
	for _, path := range p.energyPaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		uj, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid energy counter in %s", path)
		}
		totalMicroJ += uj
	}
	return totalMicroJ / 1e6, nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
