/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package runner owns the configured plugin instances and drives them
// through the collection phases: start every plugin concurrently, stop them
// at the phase boundary and merge the per-plugin results into the report
// tree. A misbehaving plugin can never block a phase transition.
package runner

import (
	"time"

	"github.com/pkg/errors"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
)

// DefaultGrace bounds how long Stop waits for a plugin run unit after
// cancellation before abandoning it.
const DefaultGrace = 30 * time.Second

type (
	// Instance pairs a built plugin with the raw configuration it was
	// built from. The process backend needs the configuration to rebuild
	// the plugin inside the worker.
	Instance struct {
		Plugin api.Plugin
		Params map[string]interface{}
	}

	// Report is the merged result tree: plugin name -> phase -> metric.
	Report map[string]map[string]api.PhaseResult

	Runner struct {
		instances []Instance
		backend   Backend
		grace     time.Duration

		handles []Handle
		started bool
		report  Report
	}
)

func New(instances []Instance, backend Backend, grace time.Duration) *Runner {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{
		instances: instances,
		backend:   backend,
		grace:     grace,
		report:    make(Report),
	}
}

func (r *Runner) HasPlugins() bool {
	return len(r.instances) > 0
}

func (r *Runner) Running() bool {
	return r.started
}

// Start launches every plugin on its own concurrency unit and returns once
// all units have been launched. A plugin whose launch fails is isolated: it
// yields an empty result at Stop, the others proceed.
func (r *Runner) Start(phase string) error {
	if r.started {
		return errors.New("plugins already started")
	}

	logger.Infof("[runner] starting %d plugins for phase %s", len(r.instances), phase)

	r.handles = make([]Handle, 0, len(r.instances))
	for _, inst := range r.instances {
		r.handles = append(r.handles, r.backend.Launch(inst))
	}

	r.started = true
	return nil
}

// Stop signals cancellation to every plugin, waits up to the grace period
// for each run unit, collects the phase results and merges them into the
// report under the given phase key. This is a full barrier: when Stop
// returns, no unit of this phase is still considered running.
func (r *Runner) Stop(phase string) error {
	if !r.started {
		return errors.New("plugins are not running")
	}

	for _, h := range r.handles {
		h.Signal()
	}

	for _, h := range r.handles {
		name := h.Plugin().Name()

		if _, exist := r.report[name][phase]; exist {
			return errors.Errorf("results for phase %s of plugin %s already exist", phase, name)
		}

		result := h.Collect(r.grace)
		if r.report[name] == nil {
			r.report[name] = make(map[string]api.PhaseResult)
		}
		r.report[name][phase] = result
	}

	r.handles = nil
	r.started = false
	logger.Infof("[runner] plugin phase %s finished", phase)
	return nil
}

// Collect returns the fully assembled report tree. Call it after all
// phases have completed.
func (r *Runner) Collect() Report {
	return r.report
}
