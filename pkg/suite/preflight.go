/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package suite

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
)

// preflight verifies the suite requirements before any phase starts: the
// run directory must be writable, the selected benchmarks must be fully
// configured and the disk must have room for benchmark working data.
func preflight(cfg *config.Config) error {
	logger.Infof("[suite] running pre-flight checks")

	if err := checkRundir(cfg.Global.Rundir); err != nil {
		return err
	}
	if err := checkBenchmarkConfig(cfg); err != nil {
		return err
	}
	if err := checkDiskSpace(cfg); err != nil {
		return err
	}

	logger.Infof("[suite] pre-flight checks passed")
	return nil
}

func checkRundir(rundir string) error {
	if err := os.MkdirAll(rundir, 0o755); err != nil {
		return errors.Wrap(err, "create run directory")
	}

	probe := filepath.Join(rundir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return errors.Wrap(err, "run directory is not writable")
	}
	_ = os.Remove(probe)
	return nil
}

func checkBenchmarkConfig(cfg *config.Config) error {
	for _, bench := range cfg.Global.Benchmarks {
		switch bench {
		case "hepscore":
			if len(cfg.Hepscore) == 0 {
				return errors.New("preflight: benchmark hepscore selected but not configured")
			}
		case "hs06":
			if len(cfg.HS06) == 0 {
				return errors.New("preflight: benchmark hs06 selected but not configured")
			}
		case "spec2017":
			if len(cfg.Spec2017) == 0 {
				return errors.New("preflight: benchmark spec2017 selected but not configured")
			}
		}
	}
	return nil
}

func checkDiskSpace(cfg *config.Config) error {
	required := cfg.Global.MinFreeDiskGB
	if required <= 0 {
		return nil
	}

	usage, err := disk.Usage(cfg.Global.Rundir)
	if err != nil {
		logger.Warnf("[suite] disk usage unavailable, skipping space check: %v", err)
		return nil
	}

	freeGB := float64(usage.Free) / (1024 * 1024 * 1024)
	if freeGB < required {
		return errors.Errorf("preflight: %.1f GB free on %s, %.1f GB required",
			freeGB, cfg.Global.Rundir, required)
	}
	return nil
}
