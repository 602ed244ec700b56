/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package benchmarks launches the configured benchmark workloads and
// retrieves their scores. The containerized benchmarks (hepscore, hs06,
// spec2017) run through the configured container engine; db12 is built in.
package benchmarks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
)

// resultFiles maps each benchmark to the result file its workload writes
// under the run directory.
var resultFiles = map[string]string{
	"hs06":     "HS06/hs06_result.json",
	"spec2017": "SPEC2017/spec2017_result.json",
	"hepscore": "HEPSCORE/hepscore_result.json",
	"db12":     "db12_result.json",
}

// Run executes one benchmark to completion and returns its score document.
// The duration of the call defines the benchmark's plugin phase.
func Run(ctx context.Context, cfg *config.Config, name string) (interface{}, error) {
	switch name {
	case "db12":
		return runDB12(ctx, cfg)
	case "hepscore":
		return runHepscore(ctx, cfg)
	case "hs06", "spec2017":
		return runHepspec(ctx, cfg, name)
	}
	return nil, errors.Errorf("unknown benchmark %q", name)
}

func runDB12(ctx context.Context, cfg *config.Config) (interface{}, error) {
	result := RunDB12(ctx, cfg.Global.NCores)

	path := filepath.Join(cfg.Global.Rundir, resultFiles["db12"])
	raw, err := json.Marshal(map[string]interface{}{"DB12": result})
	if err == nil {
		err = os.WriteFile(path, raw, 0o644)
	}
	if err != nil {
		logger.Warnf("[benchmarks] could not persist db12 result: %v", err)
	}

	if result.Value <= 0 {
		return nil, errors.New("db12 produced no score")
	}
	return map[string]interface{}{"DB12": result}, nil
}

func runHepscore(ctx context.Context, cfg *config.Config) (interface{}, error) {
	resultDir := filepath.Join(cfg.Global.Rundir, "HEPSCORE")
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create hepscore result dir")
	}

	image := cast.ToString(cfg.Hepscore["image"])
	if image == "" {
		return nil, errors.New("hepscore: no image configured")
	}

	var cmdline string
	switch cfg.Global.Mode {
	case "docker":
		cmdline = fmt.Sprintf("docker run --rm -v %s:/results %s hepscore -v -f json -o /results/hepscore_result.json", resultDir, image)
	default:
		cmdline = fmt.Sprintf("singularity run -B %s:/results %s hepscore -v -f json -o /results/hepscore_result.json", resultDir, image)
	}

	if err := execLive(ctx, cmdline); err != nil {
		return nil, errors.Wrap(err, "hepscore failed")
	}
	return readResult(cfg.Global.Rundir, "hepscore")
}

func runHepspec(ctx context.Context, cfg *config.Config, bench string) (interface{}, error) {
	section := cfg.HS06
	if bench == "spec2017" {
		section = cfg.Spec2017
	}

	image := cast.ToString(section["image"])
	volume := cast.ToString(section["hepspec_volume"])
	if image == "" || volume == "" {
		return nil, errors.Errorf("%s: image and hepspec_volume must be configured", bench)
	}

	resultDir := filepath.Join(cfg.Global.Rundir, filepath.Dir(resultFiles[bench]))
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s result dir", bench)
	}

	var cmdline string
	switch cfg.Global.Mode {
	case "docker":
		cmdline = fmt.Sprintf("docker run --rm -v %s:%s -v %s:/results %s hepspec -b %s -n %d",
			volume, volume, resultDir, image, bench, cfg.Global.NCores)
	default:
		cmdline = fmt.Sprintf("singularity run -B %s:%s -B %s:/results %s hepspec -b %s -n %d",
			volume, volume, resultDir, image, bench, cfg.Global.NCores)
	}

	if err := execLive(ctx, cmdline); err != nil {
		return nil, errors.Wrapf(err, "%s failed", bench)
	}
	return readResult(cfg.Global.Rundir, bench)
}

// execLive runs a command and streams its combined output into the log in
// real time, so long benchmark runs stay observable.
func execLive(ctx context.Context, cmdline string) error {
	logger.Infof("[benchmarks] executing: %s", cmdline)

	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Infof("[benchmarks] %s", scanner.Text())
	}

	return cmd.Wait()
}

func readResult(rundir, bench string) (interface{}, error) {
	path := filepath.Join(rundir, resultFiles[bench])
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s result", bench)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse %s result", bench)
	}
	return doc, nil
}
