/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package builder instantiates plugins from the suite configuration.
package builder

import (
	"sort"
	"strings"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/runner"
)

type (
	// FailMode decides what a configuration error of one plugin does to
	// suite startup: abort the whole run or skip the offending plugin.
	FailMode string
)

const (
	FailModeAbort FailMode = "abort"
	FailModeSkip  FailMode = "skip"
)

// Build constructs one instance per configured plugin. Plugin names are
// matched case-insensitively against the registered factories; two
// configured names mapping to the same plugin are a configuration error
// regardless of the fail mode.
func Build(config map[string]map[string]interface{}, mode FailMode) ([]runner.Instance, error) {
	names := make([]string, 0, len(config))
	seen := make(map[string]string, len(config))
	for name := range config {
		key := strings.ToLower(name)
		if prev, dup := seen[key]; dup {
			return nil, &api.ConfigError{Plugin: name, Reason: "duplicate of configured plugin " + prev}
		}
		seen[key] = name
		names = append(names, name)
	}
	sort.Strings(names)

	instances := make([]runner.Instance, 0, len(names))
	for _, name := range names {
		p, err := api.Build(name, config[name])
		if err != nil {
			if mode == FailModeSkip {
				logger.Warnf("[plugin] skipping %s: %v", name, err)
				continue
			}
			return nil, err
		}
		instances = append(instances, runner.Instance{Plugin: p, Params: config[name]})
	}
	return instances, nil
}
