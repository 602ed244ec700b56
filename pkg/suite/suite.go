/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package suite drives a full benchmark run: plugins observe the machine
// during a warm-up stage, each configured benchmark, and a cool-down
// stage, and the collected profiles and plugin metrics are assembled into
// a single report document.
package suite

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/benchmarks"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/hwmeta"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/builder"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/runner"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/publish"
)

const (
	phasePre  = "pre"
	phasePost = "post"
)

type Suite struct {
	cfg    *config.Config
	runner *runner.Runner

	profiles map[string]interface{}
	failures []string
}

// New builds every configured plugin and prepares the runner. A plugin
// configuration error aborts or skips according to plugins_fail_mode.
func New(cfg *config.Config) (*Suite, error) {
	instances, err := builder.Build(cfg.Plugins, builder.FailMode(cfg.Global.PluginsFailMode))
	if err != nil {
		return nil, err
	}

	var backend runner.Backend
	switch cfg.Global.ExecutionMode {
	case config.ExecutionModeProcess:
		backend = runner.NewProcessBackend()
	default:
		backend = runner.NewGoroutineBackend()
	}

	return &Suite{
		cfg:      cfg,
		runner:   runner.New(instances, backend, cfg.Global.PluginStopGrace()),
		profiles: make(map[string]interface{}),
	}, nil
}

// Run executes the whole suite and writes the report document under the
// run directory. A failed benchmark is recorded and the remaining ones
// still run; the error summarizes all failures at the end.
func (s *Suite) Run(ctx context.Context) error {
	if err := preflight(s.cfg); err != nil {
		return err
	}
	if err := logger.SetupFileLogger(s.cfg.Global.Rundir); err != nil {
		logger.Warnf("[suite] file logging unavailable: %v", err)
	}

	start := time.Now()
	logger.Infoz("[suite] starting run",
		zap.Strings("benchmarks", s.cfg.Global.Benchmarks),
		zap.String("mode", s.cfg.Global.Mode),
		zap.Int("ncores", s.cfg.Global.NCores))

	if err := s.runStage(ctx, phasePre, s.cfg.Global.PreStageDuration()); err != nil {
		return err
	}

	for _, bench := range s.cfg.Global.Benchmarks {
		if err := s.runBenchmark(ctx, bench); err != nil {
			logger.Errorf("[suite] benchmark %s failed: %v", bench, err)
			s.failures = append(s.failures, bench+": "+err.Error())
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if err := s.runStage(ctx, phasePost, s.cfg.Global.PostStageDuration()); err != nil {
		return err
	}
	end := time.Now()

	md := hwmeta.Collect(ctx)
	doc := buildDocument(s.cfg, md, s.profiles, s.runner.Collect(), s.failures, start, end)

	path, err := writeDocument(s.cfg.Global.Rundir, doc)
	if err != nil {
		return err
	}
	logger.Infof("[suite] report written to %s", path)

	if s.cfg.Global.Publish.Enabled {
		pub := publish.New(s.cfg.Global.Publish.URLs, s.cfg.Global.Publish.Timeout())
		if err := pub.Send(ctx, doc); err != nil {
			return err
		}
	}

	if len(s.failures) > 0 {
		return errors.Errorf("%d of %d benchmarks failed: %v",
			len(s.failures), len(s.cfg.Global.Benchmarks), s.failures)
	}
	return nil
}

// runStage keeps the plugins observing an otherwise idle machine for the
// configured warm-up or cool-down window.
func (s *Suite) runStage(ctx context.Context, phase string, d time.Duration) error {
	if !s.runner.HasPlugins() || d <= 0 {
		return nil
	}

	logger.Infof("[suite] stage %s, duration %s", phase, d)
	if err := s.runner.Start(phase); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		_ = s.runner.Stop(phase)
		return ctx.Err()
	case <-timer.C:
	}
	return s.runner.Stop(phase)
}

// runBenchmark brackets one benchmark execution with a plugin observation
// window named after the benchmark.
func (s *Suite) runBenchmark(ctx context.Context, bench string) error {
	logger.Infof("[suite] running benchmark %s", bench)

	if s.runner.HasPlugins() {
		if err := s.runner.Start(bench); err != nil {
			return err
		}
	}

	result, err := benchmarks.Run(ctx, s.cfg, bench)

	if s.runner.HasPlugins() {
		if stopErr := s.runner.Stop(bench); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	if err != nil {
		return err
	}

	s.profiles[bench] = result
	logger.Infof("[suite] benchmark %s done", bench)
	return nil
}
