/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commandexecutor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
)

func metricParams(overrides map[string]interface{}) map[string]interface{} {
	params := map[string]interface{}{
		"command":       "echo ok",
		"regex":         `value=(?P<value>\d+(\.\d+)?)`,
		"unit":          "",
		"interval_mins": 1,
	}
	for k, v := range overrides {
		params[k] = v
	}
	return params
}

func TestAggregations(t *testing.T) {
	output := "value=100 value=150"

	cases := []struct {
		agg  string
		want float64
	}{
		{"sum", 250},
		{"mean", 125},
		{"average", 125},
		{"min", 100},
		{"minimum", 100},
		{"max", 150},
		{"maximum", 150},
		{"count", 2},
		{"product", 15000},
		{"median", 125},
	}
	for _, c := range cases {
		def, err := newMetricDefinition("m", metricParams(map[string]interface{}{"aggregation": c.agg}), time.Second)
		assert.NoError(t, err, c.agg)

		v, ok := def.Parse(output)
		assert.True(t, ok, c.agg)
		assert.Equal(t, c.want, v, c.agg)
	}
}

func TestAggregationDefaultIsSum(t *testing.T) {
	def, err := newMetricDefinition("m", metricParams(nil), time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "sum", def.Aggregation)

	v, ok := def.Parse("value=1 value=2 value=3")
	assert.True(t, ok)
	assert.Equal(t, 6.0, v)
}

func TestAggregationStddev(t *testing.T) {
	def, err := newMetricDefinition("m", metricParams(map[string]interface{}{"aggregation": "stddev"}), time.Second)
	assert.NoError(t, err)

	v, ok := def.Parse("value=2 value=4 value=4 value=4 value=5 value=5 value=7 value=9")
	assert.True(t, ok)
	assert.InDelta(t, 2.138, v, 0.001)

	// A single point has no sample deviation.
	v, ok = def.Parse("value=2")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestParseNoMatch(t *testing.T) {
	def, err := newMetricDefinition("m", metricParams(nil), time.Second)
	assert.NoError(t, err)

	_, ok := def.Parse("nothing here")
	assert.False(t, ok)
}

func TestParseDiscardsNonNumeric(t *testing.T) {
	def, err := newMetricDefinition("m", metricParams(map[string]interface{}{
		"regex": `value=(?P<value>\S+)`,
	}), time.Second)
	assert.NoError(t, err)

	v, ok := def.Parse("value=12 value=oops value=30")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestMetricDefinitionValidation(t *testing.T) {
	granularity := 10 * time.Second

	cases := []struct {
		name      string
		overrides map[string]interface{}
		remove    string
	}{
		{"missing command", nil, "command"},
		{"missing regex", nil, "regex"},
		{"missing interval", nil, "interval_mins"},
		{"empty command", map[string]interface{}{"command": "  "}, ""},
		{"malformed regex", map[string]interface{}{"regex": "val(ue"}, ""},
		{"regex without value group", map[string]interface{}{"regex": `value=(\d+)`}, ""},
		{"non-positive interval", map[string]interface{}{"interval_mins": 0}, ""},
		{"non-numeric interval", map[string]interface{}{"interval_mins": "soon"}, ""},
		{"unknown aggregation", map[string]interface{}{"aggregation": "harmonic"}, ""},
		{"superfluous parameter", map[string]interface{}{"surprise": 1}, ""},
	}
	for _, c := range cases {
		params := metricParams(c.overrides)
		if c.remove != "" {
			delete(params, c.remove)
		}
		_, err := newMetricDefinition("m", params, granularity)
		assert.Error(t, err, c.name)
		assert.True(t, api.IsConfigError(err), c.name)
	}
}

func TestIntervalEchoesRoundedPeriod(t *testing.T) {
	// 0.01 minutes is below the granularity and gets clamped to 10s.
	def, err := newMetricDefinition("m", metricParams(map[string]interface{}{
		"interval_mins": 0.01,
	}), 10*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 10*time.Second, def.period)
	assert.InDelta(t, 10.0/60, def.IntervalMins, 1e-9)
	assert.Equal(t, def.IntervalMins, def.ConfigMap()["interval_mins"])
}
