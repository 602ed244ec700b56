/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package config loads and validates the suite YAML configuration.
package config

import (
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Global  Global                            `yaml:"global"`
		Plugins map[string]map[string]interface{} `yaml:"plugins"`

		// Per-benchmark sections, keyed the way the launchers expect
		// them. Their sub-keys are benchmark specific and passed through.
		Hepscore map[string]interface{} `yaml:"hepscore"`
		HS06     map[string]interface{} `yaml:"hs06"`
		Spec2017 map[string]interface{} `yaml:"spec2017"`
	}

	Global struct {
		Benchmarks []string               `yaml:"benchmarks"`
		Rundir     string                 `yaml:"rundir"`
		NCores     int                    `yaml:"ncores"`
		Mode       string                 `yaml:"mode"`
		Tags       map[string]interface{} `yaml:"tags"`

		PreStageDurationMins  float64 `yaml:"pre_stage_duration_mins"`
		PostStageDurationMins float64 `yaml:"post_stage_duration_mins"`

		// ExecutionMode selects the plugin concurrency backend.
		ExecutionMode       string  `yaml:"execution_mode"`
		PluginsFailMode     string  `yaml:"plugins_fail_mode"`
		PluginStopGraceSecs float64 `yaml:"plugin_stop_grace_secs"`

		MinFreeDiskGB float64 `yaml:"min_free_disk_gb"`

		Publish Publish `yaml:"publish"`
	}

	Publish struct {
		Enabled     bool     `yaml:"enabled"`
		URLs        []string `yaml:"urls"`
		TimeoutSecs float64  `yaml:"timeout_secs"`
	}
)

const (
	ExecutionModeGoroutine = "goroutine"
	ExecutionModeProcess   = "process"
)

var knownBenchmarks = map[string]bool{
	"db12":     true,
	"hepscore": true,
	"hs06":     true,
	"spec2017": true,
}

// Load reads the configuration file, fills defaults and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	g := &c.Global
	if g.Rundir == "" {
		g.Rundir = "/tmp/hep-benchmark-suite"
	}
	if g.Mode == "" {
		g.Mode = "singularity"
	}
	if g.NCores <= 0 {
		g.NCores = runtime.NumCPU()
	}
	if g.PreStageDurationMins <= 0 {
		g.PreStageDurationMins = 0.05
	}
	if g.PostStageDurationMins <= 0 {
		g.PostStageDurationMins = 0.05
	}
	if g.ExecutionMode == "" {
		g.ExecutionMode = ExecutionModeGoroutine
	}
	if g.PluginsFailMode == "" {
		g.PluginsFailMode = "abort"
	}
	if g.PluginStopGraceSecs <= 0 {
		g.PluginStopGraceSecs = 30
	}
	if g.Publish.TimeoutSecs <= 0 {
		g.Publish.TimeoutSecs = 10
	}
}

func (c *Config) Validate() error {
	g := &c.Global
	if len(g.Benchmarks) == 0 {
		return errors.New("config: no benchmarks selected")
	}
	for _, b := range g.Benchmarks {
		if !knownBenchmarks[b] {
			return errors.Errorf("config: unknown benchmark %q", b)
		}
	}
	if g.Mode != "singularity" && g.Mode != "docker" {
		return errors.Errorf("config: unknown run mode %q", g.Mode)
	}
	if g.ExecutionMode != ExecutionModeGoroutine && g.ExecutionMode != ExecutionModeProcess {
		return errors.Errorf("config: unknown execution_mode %q", g.ExecutionMode)
	}
	if g.NCores > runtime.NumCPU() {
		return errors.Errorf("config: ncores %d exceeds available CPUs (%d)", g.NCores, runtime.NumCPU())
	}
	if mode := g.PluginsFailMode; mode != "abort" && mode != "skip" {
		return errors.Errorf("config: unknown plugins_fail_mode %q", mode)
	}
	return nil
}

func (g *Global) PreStageDuration() time.Duration {
	return time.Duration(g.PreStageDurationMins * float64(time.Minute))
}

func (g *Global) PostStageDuration() time.Duration {
	return time.Duration(g.PostStageDurationMins * float64(time.Minute))
}

func (g *Global) PluginStopGrace() time.Duration {
	return time.Duration(g.PluginStopGraceSecs * float64(time.Second))
}

func (p *Publish) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs * float64(time.Second))
}
