/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package timeseries

import (
	"time"

	"github.com/pkg/errors"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/interval"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

// ErrNoSample marks a tick that legitimately produces no sample, such as a
// baseline seeding read. The tick is skipped without a warning.
var ErrNoSample = errors.New("no sample this tick")

type (
	// CollectFunc produces one sample. An error skips the tick, it never
	// terminates the collection loop.
	CollectFunc func() (float64, error)

	// Collector is the reusable building block for single-metric interval
	// plugins: it owns the phase window, the series buffer and the
	// interval loop, and leaves only the actual sampling to the plugin.
	// Concrete plugins embed it and provide Name().
	Collector struct {
		metric       string
		unit         string
		intervalMins float64
		period       time.Duration
		series       *Timeseries
		collect      CollectFunc

		tstart time.Time
		tend   time.Time
	}
)

func NewCollector(metric string, intervalMins float64, unit string, collect CollectFunc) *Collector {
	return &Collector{
		metric:       metric,
		unit:         unit,
		intervalMins: intervalMins,
		period:       interval.EffectivePeriod(intervalMins, interval.DefaultGranularity),
		series:       New(metric),
		collect:      collect,
	}
}

func (c *Collector) MetricNames() []string {
	return []string{c.metric}
}

func (c *Collector) OnStart() error {
	c.tstart = time.Now()
	c.tend = time.Time{}
	c.series.Clear()
	return nil
}

func (c *Collector) Run(stop *util.StopSignal) {
	interval.NewLoop(c.period, c.execute).Run(stop)
}

func (c *Collector) execute() {
	value, err := c.collect()
	if errors.Is(err, ErrNoSample) {
		logger.Debugf("[plugin] collect %s produced no sample this tick", c.metric)
		return
	}
	if err != nil {
		logger.Warnf("[plugin] collect %s failed, tick skipped: %+v", c.metric, err)
		return
	}
	c.series.Append(value)
}

func (c *Collector) OnEnd() api.PhaseResult {
	c.tend = time.Now()
	return api.PhaseResult{
		c.metric: c.series.Result(c.tstart, c.tend, map[string]interface{}{
			"interval_mins": c.intervalMins,
			"unit":          c.unit,
		}),
	}
}
