/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commandexecutor

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/interval"
)

type (
	// AggregateFunc reduces the values extracted from one command
	// invocation into the single sample appended to the series.
	AggregateFunc func([]float64) float64

	// MetricDefinition is one configured collection metric: the command to
	// run, the regex extracting values from its output and the schedule
	// and aggregation applied to them. Immutable after construction.
	MetricDefinition struct {
		Name        string
		Command     string
		Regex       string
		Unit        string
		Aggregation string

		// IntervalMins is the configured interval after rounding to the
		// minimum granularity; this is the value echoed into the report.
		IntervalMins float64

		period   time.Duration
		pattern  *regexp.Regexp
		valueIdx int
		agg      AggregateFunc
	}
)

var metricSchema = api.Schema{
	Required: []string{"command", "regex", "unit", "interval_mins"},
	Optional: []string{"aggregation", "description", "expected-value", "example-output"},
}

const defaultAggregation = "sum"

var aggregations = map[string]AggregateFunc{
	"sum":     aggSum,
	"mean":    aggMean,
	"average": aggMean,
	"min":     aggMin,
	"minimum": aggMin,
	"max":     aggMax,
	"maximum": aggMax,
	"count":   func(values []float64) float64 { return float64(len(values)) },
	"product": aggProduct,
	"median":  aggMedian,
	"stddev":  aggStddev,
}

func newMetricDefinition(name string, params map[string]interface{}, granularity time.Duration) (*MetricDefinition, error) {
	if err := metricSchema.Check(pluginName+"/"+name, params); err != nil {
		return nil, err
	}

	command, err := cast.ToStringE(params["command"])
	if err != nil || strings.TrimSpace(command) == "" {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: invalid command", name)}
	}
	regex, err := cast.ToStringE(params["regex"])
	if err != nil {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: invalid regex", name)}
	}
	unit := cast.ToString(params["unit"])
	intervalMins, err := cast.ToFloat64E(params["interval_mins"])
	if err != nil || intervalMins <= 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: interval_mins must be a positive number", name)}
	}

	pattern, err := regexp.Compile(regex)
	if err != nil {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: malformed regex: %v", name, err)}
	}
	valueIdx := pattern.SubexpIndex("value")
	if valueIdx < 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: regex misses the named capture group \"value\"", name)}
	}

	aggName := defaultAggregation
	if raw, ok := params["aggregation"]; ok {
		aggName = strings.TrimSpace(cast.ToString(raw))
		if aggName == "" || aggName == "default" {
			aggName = defaultAggregation
		}
	}
	agg, ok := aggregations[aggName]
	if !ok {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("metric %s: unknown aggregation %q", name, aggName)}
	}

	period := interval.EffectivePeriod(intervalMins, granularity)

	return &MetricDefinition{
		Name:         name,
		Command:      strings.TrimSpace(command),
		Regex:        regex,
		Unit:         unit,
		Aggregation:  aggName,
		IntervalMins: period.Minutes(),
		period:       period,
		pattern:      pattern,
		valueIdx:     valueIdx,
		agg:          agg,
	}, nil
}

// Parse extracts all occurrences of the "value" group from the command
// output, parses them as floats and reduces them with the configured
// aggregation. The second return is false when no numeric value could be
// extracted, which skips the tick.
func (m *MetricDefinition) Parse(output string) (float64, bool) {
	var values []float64
	for _, match := range m.pattern.FindAllStringSubmatch(output, -1) {
		raw := match[m.valueIdx]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warnf("[plugin] metric %s: discarding non-numeric capture %q", m.Name, raw)
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, false
	}
	return m.agg(values), true
}

// ConfigMap echoes the effective metric configuration into the report.
func (m *MetricDefinition) ConfigMap() map[string]interface{} {
	return map[string]interface{}{
		"interval_mins": m.IntervalMins,
		"command":       m.Command,
		"regex":         m.Regex,
		"unit":          m.Unit,
		"aggregation":   m.Aggregation,
	}
}

func aggSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

func aggMean(values []float64) float64 {
	return aggSum(values) / float64(len(values))
}

func aggMin(values []float64) float64 {
	min := values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	return min
}

func aggMax(values []float64) float64 {
	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func aggProduct(values []float64) float64 {
	p := 1.0
	for _, v := range values {
		p *= v
	}
	return p
}

func aggMedian(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// aggStddev is the sample standard deviation; it needs at least two points.
func aggStddev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean := aggMean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
