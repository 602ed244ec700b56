/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

type (
	// Backend is the concurrency strategy plugins run on. The goroutine
	// backend shares process memory; the process backend gives full crash
	// containment at the cost of serializing results.
	Backend interface {
		Launch(inst Instance) Handle
	}

	// Handle tracks one plugin unit through one phase.
	Handle interface {
		Plugin() api.Plugin

		// Signal requests cooperative cancellation without waiting.
		Signal()

		// Collect waits up to grace for the unit to finish and returns
		// the phase result. A unit that does not finish in time is
		// abandoned and reported empty.
		Collect(grace time.Duration) api.PhaseResult
	}

	goroutineBackend struct{}

	goroutineHandle struct {
		plugin   api.Plugin
		stop     *util.StopSignal
		signal   sync.Once
		startErr error
		panicked atomic.Bool
		state    atomic.Int32
	}
)

func NewGoroutineBackend() Backend {
	return goroutineBackend{}
}

// Launch calls OnStart synchronously (it is required to be cheap) and
// starts Run on its own goroutine. Panics anywhere inside the plugin are
// absorbed and turn the phase result empty.
func (goroutineBackend) Launch(inst Instance) Handle {
	h := &goroutineHandle{
		plugin: inst.Plugin,
		stop:   util.NewStopSignal(),
	}
	h.state.Store(int32(api.StateCreated))

	util.WithRecover(func() {
		h.startErr = h.plugin.OnStart()
	}, func(p interface{}) {
		h.startErr = &pluginPanic{value: p}
	})

	if h.startErr != nil {
		logger.Errorf("[runner] plugin %s OnStart failed: %v", h.plugin.Name(), h.startErr)
		h.stop.StopDone()
		h.state.Store(int32(api.StateEnded))
		return h
	}
	h.state.Store(int32(api.StateStarted))

	go func() {
		defer h.stop.StopDone()
		h.state.Store(int32(api.StateRunning))
		util.WithRecover(func() {
			h.plugin.Run(h.stop)
		}, func(p interface{}) {
			h.panicked.Store(true)
		})
	}()

	return h
}

func (h *goroutineHandle) Plugin() api.Plugin {
	return h.plugin
}

func (h *goroutineHandle) Signal() {
	h.state.Store(int32(api.StateStopping))
	h.signal.Do(h.stop.Stop)
}

func (h *goroutineHandle) Collect(grace time.Duration) api.PhaseResult {
	name := h.plugin.Name()

	if h.startErr != nil {
		return api.EmptyPhaseResult(h.plugin)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-h.stop.Stopped():
	case <-timer.C:
		// Forcibly terminating a goroutine is unsafe; abandon it and let
		// the phase transition proceed.
		logger.Warnf("[runner] plugin %s ignored cancellation for %s, result dropped", name, grace)
		h.state.Store(int32(api.StateEnded))
		return api.EmptyPhaseResult(h.plugin)
	}

	h.state.Store(int32(api.StateEnded))

	if h.panicked.Load() {
		logger.Errorf("[runner] plugin %s run unit panicked, result dropped", name)
		return api.EmptyPhaseResult(h.plugin)
	}

	var result api.PhaseResult
	util.WithRecover(func() {
		result = h.plugin.OnEnd()
	}, func(p interface{}) {
		logger.Errorf("[runner] plugin %s OnEnd panicked: %v", name, p)
		result = api.EmptyPhaseResult(h.plugin)
	})
	return result
}

// State reports the lifecycle state of the unit, used by tests.
func (h *goroutineHandle) State() api.State {
	return api.State(h.state.Load())
}

type pluginPanic struct {
	value interface{}
}

func (e *pluginPanic) Error() string {
	return "plugin panicked during OnStart"
}
