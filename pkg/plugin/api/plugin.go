/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package api defines the lifecycle contract every collector plugin obeys
// and the result types the runner merges into the final report.
package api

import (
	"encoding/json"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

type (
	// Plugin is one independently schedulable unit of metric collection.
	// One instance is built per configured plugin and reused across all
	// phases; OnStart resets the per-phase buffers.
	//
	// Run blocks until the stop signal fires. Any error inside Run must be
	// absorbed by the plugin itself, a failed tick must never terminate the
	// run loop. OnEnd returns the phase result synchronously and must be
	// safe to call after a failed Run.
	Plugin interface {
		Name() string

		// MetricNames lists the metrics this instance is configured to
		// collect. Every listed metric appears as a key in the phase
		// result even when it collected nothing.
		MetricNames() []string

		OnStart() error
		Run(stop *util.StopSignal)
		OnEnd() PhaseResult
	}

	// State tracks a plugin unit through one phase.
	State int32

	// PhaseResult maps metric name to the result collected during one
	// phase by one plugin.
	PhaseResult map[string]MetricResult

	Statistics struct {
		Min  float64 `json:"min"`
		Mean float64 `json:"mean"`
		Max  float64 `json:"max"`
	}

	// MetricResult is the summary of one metric's time-series for one
	// phase. A result without values marshals to "{}" so that consumers
	// can always rely on key presence.
	MetricResult struct {
		TStart     string                 `json:"tstart"`
		TEnd       string                 `json:"tend"`
		Values     []float64              `json:"values"`
		Statistics Statistics             `json:"statistics"`
		Config     map[string]interface{} `json:"config,omitempty"`
	}
)

const (
	StateCreated State = iota
	StateStarted
	StateRunning
	StateStopping
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

func (m MetricResult) Empty() bool {
	return len(m.Values) == 0
}

func (m MetricResult) MarshalJSON() ([]byte, error) {
	if m.Empty() {
		return []byte("{}"), nil
	}
	type alias MetricResult
	return json.Marshal(alias(m))
}

// EmptyPhaseResult builds the result used when a whole plugin phase failed
// or was abandoned: every configured metric present, every value empty.
func EmptyPhaseResult(p Plugin) PhaseResult {
	r := make(PhaseResult, len(p.MetricNames()))
	for _, name := range p.MetricNames() {
		r[name] = MetricResult{}
	}
	return r
}
