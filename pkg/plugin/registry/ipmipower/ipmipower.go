/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package ipmipower reports the summed power consumption of all matching
// power supplies in watts, read from the IPMI sensor data repository.
// Sensor naming differs per vendor, so the entry filter is configurable:
// name_regex selects the sdr elist rows, value_regex extracts the reading.
package ipmipower

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

const (
	pluginName = "PowerConsumptionPlugin"

	defaultValueRegex = `(?P<value>\d+) Watts`
)

type (
	Plugin struct {
		*timeseries.Collector
		command string
		pattern *regexp.Regexp
	}
)

var schema = api.Schema{
	Required: []string{"interval_mins", "name_regex"},
	Optional: []string{"value_regex", "command_arguments"},
}

func New(params map[string]interface{}) (*Plugin, error) {
	if err := schema.Check(pluginName, params); err != nil {
		return nil, err
	}
	intervalMins, err := cast.ToFloat64E(params["interval_mins"])
	if err != nil || intervalMins <= 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "interval_mins must be a positive number"}
	}

	nameRegex, err := cast.ToStringE(params["name_regex"])
	if err != nil || strings.TrimSpace(nameRegex) == "" {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "name_regex must be a non-empty string"}
	}
	valueRegex := defaultValueRegex
	if raw, ok := params["value_regex"]; ok {
		valueRegex = cast.ToString(raw)
	}

	// One pattern per supply row: the name filter, anything up to the
	// reading, then the value extraction.
	pattern, err := regexp.Compile(nameRegex + ".* " + valueRegex)
	if err != nil {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: fmt.Sprintf("malformed regex: %v", err)}
	}
	if pattern.SubexpIndex("value") < 0 {
		return nil, &api.ConfigError{Plugin: pluginName, Reason: "value_regex misses the named capture group \"value\""}
	}

	command := "ipmitool sdr elist"
	if raw, ok := params["command_arguments"]; ok {
		if args := strings.TrimSpace(cast.ToString(raw)); args != "" {
			command = "ipmitool " + args + " sdr elist"
		}
	}

	p := &Plugin{command: command, pattern: pattern}
	p.Collector = timeseries.NewCollector("power-consumption", intervalMins, "W", p.collect)
	return p, nil
}

func (p *Plugin) Name() string {
	return pluginName
}

func (p *Plugin) collect() (float64, error) {
	out, err := util.RunCommand(p.command, util.DefaultCommandTimeout)
	if err != nil {
		return 0, err
	}
	return p.parse(out)
}

// parse sums the readings of every matching power supply. Finding no supply
// at all is an error, the sensor naming is probably wrong for this vendor.
func (p *Plugin) parse(output string) (float64, error) {
	valueIdx := p.pattern.SubexpIndex("value")

	sum := 0.0
	n := 0
	for _, match := range p.pattern.FindAllStringSubmatch(output, -1) {
		watts, err := strconv.ParseFloat(match[valueIdx], 64)
		if err != nil {
			logger.Warnf("[plugin] %s: skipping reading %q", pluginName, match[valueIdx])
			continue
		}
		sum += watts
		n++
	}
	if n == 0 {
		return 0, errors.Errorf("no power source matched in the output of %q", p.command)
	}
	return sum, nil
}

func init() {
	api.Register(pluginName, func(params map[string]interface{}) (api.Plugin, error) {
		return New(params)
	})
}
