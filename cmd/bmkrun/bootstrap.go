/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/runner"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/suite"

	// Register the built-in plugins.
	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/all"
)

type rootOptions struct {
	configPath string
	benchmarks []string
	rundir     string
	tags       []string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "bmkrun",
		Short:         "Run benchmarks with machine-state plugins and collect a report",
		Version:       suite.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to the suite YAML configuration (required)")
	flags.StringSliceVarP(&opts.benchmarks, "benchmarks", "b", nil, "override the configured benchmark list")
	flags.StringVar(&opts.rundir, "rundir", "", "override the configured run directory")
	flags.StringArrayVar(&opts.tags, "tag", nil, "extra host tag as key=value, repeatable")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("config")

	cmd.AddCommand(newWorkerCommand())
	return cmd
}

func runSuite(opts *rootOptions) error {
	logger.DebugEnabled = opts.verbose

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	s, err := suite.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(func() error {
		return s.Run(ctx)
	}, func(error) {
		cancel()
	})
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	if err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) {
			logger.Warnf("[main] interrupted by %s", sigErr.Signal)
			return err
		}
		logger.Errorf("[main] suite failed: %v", err)
	}
	return err
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if len(opts.benchmarks) > 0 {
		cfg.Global.Benchmarks = opts.benchmarks
	}
	if opts.rundir != "" {
		cfg.Global.Rundir = opts.rundir
	}
	for _, tag := range opts.tags {
		k, v, ok := strings.Cut(tag, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("malformed --tag %q, want key=value", tag)
		}
		if cfg.Global.Tags == nil {
			cfg.Global.Tags = make(map[string]interface{})
		}
		cfg.Global.Tags[k] = v
	}

	// Re-validate after command line overrides.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newWorkerCommand is the re-exec entry used by the process execution
// mode. The parent writes one plugin request on stdin and reads the
// phase result from stdout; SIGTERM asks the plugin to stop.
func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "plugin-worker",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stdout carries the result JSON; logs must go to stderr.
			logger.SetupWorkerLogger()

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
			defer signal.Stop(signals)

			return runner.RunWorker(os.Stdin, os.Stdout, signals)
		},
	}
}
