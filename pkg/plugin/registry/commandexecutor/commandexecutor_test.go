/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commandexecutor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(map[string]interface{}{})
	assert.Error(t, err)
	assert.True(t, api.IsConfigError(err))

	_, err = New(map[string]interface{}{"metrics": map[string]interface{}{}})
	assert.Error(t, err)

	_, err = New(map[string]interface{}{
		"metrics": map[string]interface{}{
			"m": map[string]interface{}{
				"command":       "echo 1",
				"regex":         `(?P<value>\d+)`,
				"unit":          "",
				"interval_mins": 1,
			},
		},
		"command_timeout_secs": -1,
	})
	assert.Error(t, err)
}

func TestCommandExecutorCollectsFrequency(t *testing.T) {
	ce, err := newWithGranularity(map[string]interface{}{
		"metrics": map[string]interface{}{
			"cpu-frequency": map[string]interface{}{
				"command":       `echo "current CPU frequency: 1269082 kHz"`,
				"regex":         `current CPU frequency: (?P<value>\d+).*`,
				"unit":          "kHz",
				"interval_mins": 0.001,
			},
		},
	}, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, pluginName, ce.Name())
	assert.Equal(t, []string{"cpu-frequency"}, ce.MetricNames())

	result := runPhase(t, ce, 180*time.Millisecond)

	r := result["cpu-frequency"]
	assert.False(t, r.Empty())
	for _, v := range r.Values {
		assert.Equal(t, 1269082.0, v)
	}
	assert.Equal(t, 1269082.0, r.Statistics.Min)
	assert.Equal(t, 1269082.0, r.Statistics.Mean)
	assert.Equal(t, 1269082.0, r.Statistics.Max)
	assert.Equal(t, "kHz", r.Config["unit"])
}

func TestCommandExecutorFailingCommand(t *testing.T) {
	ce, err := newWithGranularity(map[string]interface{}{
		"metrics": map[string]interface{}{
			"broken": map[string]interface{}{
				"command":       "definitely-not-a-command-2193",
				"regex":         `(?P<value>\d+)`,
				"unit":          "",
				"interval_mins": 0.001,
			},
		},
	}, 50*time.Millisecond)
	assert.NoError(t, err)

	result := runPhase(t, ce, 120*time.Millisecond)

	// The loop survived every failed tick and the metric key is still
	// present, marshaling to the empty object.
	r, exist := result["broken"]
	assert.True(t, exist)
	assert.True(t, r.Empty())

	raw, err := json.Marshal(result)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"broken": {}}`, string(raw))
}

func TestCommandExecutorSharedCommand(t *testing.T) {
	// Two metrics over the same command and period are fed from one
	// invocation per tick.
	metric := func(agg string) map[string]interface{} {
		return map[string]interface{}{
			"command":       `echo "v=10 v=30"`,
			"regex":         `v=(?P<value>\d+)`,
			"unit":          "",
			"interval_mins": 0.001,
			"aggregation":   agg,
		}
	}
	ce, err := newWithGranularity(map[string]interface{}{
		"metrics": map[string]interface{}{
			"total":   metric("sum"),
			"largest": metric("max"),
		},
	}, 50*time.Millisecond)
	assert.NoError(t, err)

	result := runPhase(t, ce, 180*time.Millisecond)

	total := result["total"]
	largest := result["largest"]
	assert.False(t, total.Empty())
	assert.Equal(t, len(total.Values), len(largest.Values))
	assert.Equal(t, 40.0, total.Values[0])
	assert.Equal(t, 30.0, largest.Values[0])
}

func TestCommandExecutorPhaseWindow(t *testing.T) {
	ce, err := newWithGranularity(map[string]interface{}{
		"metrics": map[string]interface{}{
			"m": map[string]interface{}{
				"command":       "echo 5",
				"regex":         `(?P<value>\d+)`,
				"unit":          "",
				"interval_mins": 0.001,
			},
		},
	}, 50*time.Millisecond)
	assert.NoError(t, err)

	before := time.Now()
	result := runPhase(t, ce, 60*time.Millisecond)
	after := time.Now()

	r := result["m"]
	tstart, err := util.ParseTimestamp(r.TStart)
	assert.NoError(t, err)
	tend, err := util.ParseTimestamp(r.TEnd)
	assert.NoError(t, err)
	assert.False(t, tstart.Before(before.UTC().Truncate(time.Microsecond)))
	assert.False(t, tend.After(after.UTC().Add(time.Microsecond)))
	assert.True(t, tend.After(tstart))
}

func runPhase(t *testing.T, ce *CommandExecutor, d time.Duration) api.PhaseResult {
	t.Helper()

	assert.NoError(t, ce.OnStart())

	stop := util.NewStopSignal()
	go func() {
		defer stop.StopDone()
		ce.Run(stop)
	}()

	time.Sleep(d)
	stop.StopAndWait()
	return ce.OnEnd()
}
