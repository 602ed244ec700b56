/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package commandexecutor implements the generic shell-command collector:
// per metric, run a command on an interval, extract values from its output
// with a regex and aggregate them into one sample.
//
// Example configuration:
//
//	plugins:
//	  CommandExecutor:
//	    metrics:
//	      cpu-frequency:
//	        command: cpupower frequency-info -f
//	        regex: "current CPU frequency: (?P<value>\\d+).*"
//	        unit: kHz
//	        interval_mins: 1
//	      power-consumption:
//	        command: ipmitool sdr elist
//	        regex: "PS \\d Output.* (?P<value>\\d+) Watts"
//	        unit: W
//	        interval_mins: 1
//	        aggregation: sum
package commandexecutor

import (
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/interval"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

const pluginName = "CommandExecutor"

// dueTolerance groups metrics whose next execution times are close enough
// to be collected in the same tick.
const dueTolerance = 100 * time.Millisecond

type (
	CommandExecutor struct {
		metrics map[string]*MetricDefinition
		series  map[string]*timeseries.Timeseries

		granularity time.Duration
		cmdTimeout  time.Duration

		tstart time.Time
		tend   time.Time
	}
)

var schema = api.Schema{
	Required: []string{"metrics"},
	Optional: []string{"command_timeout_secs"},
}

// New builds the plugin from its configuration mapping. Every metric is
// validated here; a malformed regex or an unknown aggregation never makes
// it to a running phase.
func New(params map[string]interface{}) (*CommandExecutor, error) {
	return newWithGranularity(params, interval.DefaultGranularity)
}

func newWithGranularity(params map[string]interface{}, granularity time.Duration) (*CommandExecutor, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}

	metricsCfg, err := cast.ToStringMapE(params["metrics"])
	if err != nil || len(metricsCfg) == 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "metrics must be a non-empty mapping"}
	}

	cmdTimeout := util.DefaultCommandTimeout
	if raw, ok := params["command_timeout_secs"]; ok {
		secs, err := cast.ToFloat64E(raw)
		if err != nil || secs <= 0 {
			return nil, &api.ConfigError{Plugin: pluginName, Reason: "command_timeout_secs must be a positive number"}
		}
		cmdTimeout = time.Duration(secs * float64(time.Second))
	}

	ce := &CommandExecutor{
		metrics:     make(map[string]*MetricDefinition, len(metricsCfg)),
		series:      make(map[string]*timeseries.Timeseries, len(metricsCfg)),
		granularity: granularity,
		cmdTimeout:  cmdTimeout,
	}

	for name, raw := range metricsCfg {
		options, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, &api.ConfigError{Plugin: pluginName, Reason: "metric " + name + " must be a mapping"}
		}
		def, err := newMetricDefinition(name, options, granularity)
		if err != nil {
			return nil, err
		}
		ce.metrics[name] = def
		ce.series[name] = timeseries.New(name)
	}

	return ce, nil
}

func (ce *CommandExecutor) Name() string {
	return pluginName
}

func (ce *CommandExecutor) MetricNames() []string {
	names := make([]string, 0, len(ce.metrics))
	for name := range ce.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ce *CommandExecutor) OnStart() error {
	ce.tstart = time.Now()
	ce.tend = time.Time{}
	for _, s := range ce.series {
		s.Clear()
	}
	return nil
}

// Run multiplexes all metric schedules onto one loop: every iteration
// collects the metrics that are due, then sleeps until the soonest next
// execution or until cancellation.
func (ce *CommandExecutor) Run(stop *util.StopSignal) {
	start := time.Now()

	// All metrics collect once immediately after phase start.
	ce.collect(ce.all())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		delay, due := ce.nextDue(start)
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(delay)

		select {
		case <-stop.C:
			return
		case <-timer.C:
			if stop.IsStopAsked() {
				return
			}
			ce.collect(due)
		}
	}
}

func (ce *CommandExecutor) all() []*MetricDefinition {
	defs := make([]*MetricDefinition, 0, len(ce.metrics))
	for _, def := range ce.metrics {
		defs = append(defs, def)
	}
	return defs
}

// nextDue determines the delay until the soonest metric execution and the
// metric group due at that instant. Metrics sharing a period collapse into
// one group, so intervals of 1 and 5 minutes run together every fifth tick.
func (ce *CommandExecutor) nextDue(start time.Time) (time.Duration, []*MetricDefinition) {
	shortest := time.Duration(1<<63 - 1)
	var due []*MetricDefinition

	elapsed := time.Since(start)
	for _, def := range ce.metrics {
		remaining := def.period - elapsed%def.period

		switch {
		case remaining < shortest-dueTolerance:
			shortest = remaining
			due = due[:0]
			due = append(due, def)
		case remaining <= shortest+dueTolerance:
			due = append(due, def)
		}
	}

	return shortest, due
}

// collect executes the commands of the due metrics, each unique command
// only once, then parses all outputs. A failing command or an output
// without extractable values produces zero samples for the tick; neither
// aborts the loop.
func (ce *CommandExecutor) collect(due []*MetricDefinition) {
	logger.Debugf("[plugin] executing %s for %d metrics", pluginName, len(due))

	outputs := make(map[string]string, len(due))
	failed := make(map[string]bool)
	for _, def := range due {
		if _, done := outputs[def.Command]; done || failed[def.Command] {
			continue
		}
		out, err := util.RunCommand(def.Command, ce.cmdTimeout)
		if err != nil {
			logger.Warnf("[plugin] metric command failed, tick skipped: %+v", err)
			failed[def.Command] = true
			continue
		}
		outputs[def.Command] = out
	}

	now := time.Now()
	for _, def := range due {
		output, ok := outputs[def.Command]
		if !ok {
			continue
		}
		value, ok := def.Parse(output)
		if !ok {
			logger.Warnf("[plugin] metric %s extracted no values this tick", def.Name)
			continue
		}
		ce.series[def.Name].AppendAt(now, value)
	}
}

func (ce *CommandExecutor) OnEnd() api.PhaseResult {
	ce.tend = time.Now()

	result := make(api.PhaseResult, len(ce.metrics))
	for name, s := range ce.series {
		result[name] = s.Result(ce.tstart, ce.tend, ce.metrics[name].ConfigMap())
	}
	return result
}
