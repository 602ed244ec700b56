/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/api"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

type (
	// WorkerRequest is what the parent writes to a worker's stdin.
	WorkerRequest struct {
		Name   string                 `json:"name"`
		Params map[string]interface{} `json:"params"`
	}
)

// RunWorker is the worker side of the process backend: rebuild the plugin
// from the request, run it until a stop signal arrives, then write the
// phase result as JSON. Invoked by the plugin-worker subcommand.
func RunWorker(stdin io.Reader, stdout io.Writer, signals <-chan os.Signal) error {
	var req WorkerRequest
	if err := json.NewDecoder(stdin).Decode(&req); err != nil {
		return errors.Wrap(err, "read worker request")
	}

	p, err := api.Build(req.Name, req.Params)
	if err != nil {
		return errors.Wrap(err, "build plugin in worker")
	}

	if err := p.OnStart(); err != nil {
		return errors.Wrapf(err, "plugin %s OnStart", p.Name())
	}

	stop := util.NewStopSignal()
	util.GoWithRecover(func() {
		<-signals
		stop.Stop()
	})

	util.WithRecover(func() {
		p.Run(stop)
	})

	result := api.EmptyPhaseResult(p)
	util.WithRecover(func() {
		result = p.OnEnd()
	})

	return json.NewEncoder(stdout).Encode(result)
}
