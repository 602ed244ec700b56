/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
)

type (
	// ProcessBackend runs each plugin in an isolated worker process: the
	// suite binary re-executed with the worker subcommand, the plugin
	// configuration passed as JSON on stdin and the phase result returned
	// as JSON on stdout. A crashing plugin takes down only its worker.
	ProcessBackend struct {
		// WorkerArgs is the argument vector appended to the re-executed
		// binary to enter worker mode.
		WorkerArgs []string
	}

	processHandle struct {
		plugin    api.Plugin
		cmd       *exec.Cmd
		stdout    *bytes.Buffer
		done      chan error
		launchErr error
	}
)

func NewProcessBackend() Backend {
	return &ProcessBackend{WorkerArgs: []string{"plugin-worker"}}
}

func (b *ProcessBackend) Launch(inst Instance) Handle {
	h := &processHandle{
		plugin: inst.Plugin,
		stdout: &bytes.Buffer{},
		done:   make(chan error, 1),
	}

	exe, err := os.Executable()
	if err != nil {
		h.launchErr = err
		return h
	}

	req, err := json.Marshal(WorkerRequest{Name: inst.Plugin.Name(), Params: inst.Params})
	if err != nil {
		h.launchErr = err
		return h
	}

	cmd := exec.Command(exe, b.WorkerArgs...)
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = h.stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		h.launchErr = err
		return h
	}
	h.cmd = cmd

	go func() {
		h.done <- cmd.Wait()
	}()

	return h
}

func (h *processHandle) Plugin() api.Plugin {
	return h.plugin
}

func (h *processHandle) Signal() {
	if h.cmd == nil {
		return
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.Warnf("[runner] signal worker of %s: %v", h.plugin.Name(), err)
	}
}

func (h *processHandle) Collect(grace time.Duration) api.PhaseResult {
	name := h.plugin.Name()

	if h.launchErr != nil {
		logger.Errorf("[runner] worker of %s failed to launch: %v", name, h.launchErr)
		return api.EmptyPhaseResult(h.plugin)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-h.done:
		if err != nil {
			logger.Errorf("[runner] worker of %s exited with error: %v", name, err)
			return api.EmptyPhaseResult(h.plugin)
		}
	case <-timer.C:
		logger.Warnf("[runner] worker of %s ignored cancellation for %s, killing it", name, grace)
		_ = h.cmd.Process.Kill()
		<-h.done
		return api.EmptyPhaseResult(h.plugin)
	}

	result, err := decodeWorkerResult(h.stdout.Bytes())
	if err != nil {
		logger.Errorf("[runner] worker of %s returned malformed result: %v", name, err)
		return api.EmptyPhaseResult(h.plugin)
	}
	// The worker may predate some configured metrics if it failed half
	// way; key presence is guaranteed here instead.
	for _, metric := range h.plugin.MetricNames() {
		if _, ok := result[metric]; !ok {
			result[metric] = api.MetricResult{}
		}
	}
	return result
}

// decodeWorkerResult extracts the phase result from a worker's stdout.
// The result is the final line the worker writes, so stray output ahead of
// it, such as a plugin printing to stdout, does not invalidate the phase.
func decodeWorkerResult(raw []byte) (api.PhaseResult, error) {
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		var result api.PhaseResult
		if err := json.Unmarshal(line, &result); err == nil && result != nil {
			return result, nil
		}
	}
	return nil, errors.New("no phase result in worker output")
}
