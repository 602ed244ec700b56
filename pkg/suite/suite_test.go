/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package suite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/hwmeta"

	_ "github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/registry/testplugin"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Global.Benchmarks = []string{"db12"}
	cfg.Global.Rundir = t.TempDir()
	cfg.Global.NCores = 1
	cfg.Plugins = map[string]map[string]interface{}{
		"TestPlugin": {},
	}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())

	// Short observation windows keep the test fast.
	cfg.Global.PreStageDurationMins = 0.005
	cfg.Global.PostStageDurationMins = 0.005
	return cfg
}

func TestSuiteRun(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg)
	assert.NoError(t, err)
	assert.NoError(t, s.Run(context.Background()))

	raw, err := os.ReadFile(filepath.Join(cfg.Global.Rundir, reportFile))
	assert.NoError(t, err)

	var doc map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &doc))

	assert.NotEmpty(t, doc["_id"])
	assert.NotEmpty(t, doc["_timestamp"])
	assert.Equal(t, jsonVersion, doc["json_version"])

	profiles := doc["profiles"].(map[string]interface{})
	db12 := profiles["db12"].(map[string]interface{})["DB12"].(map[string]interface{})
	assert.Greater(t, db12["value"].(float64), 0.0)

	plugins := doc["plugins"].(map[string]interface{})
	phases := plugins["TestPlugin"].(map[string]interface{})
	for _, phase := range []string{"pre", "db12", "post"} {
		assert.Contains(t, phases, phase)
	}
}

func TestSuiteNewRejectsBadPlugin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plugins["NoSuchPlugin"] = map[string]interface{}{}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestSuiteSkipMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plugins["NoSuchPlugin"] = map[string]interface{}{}
	cfg.Global.PluginsFailMode = "skip"

	s, err := New(cfg)
	assert.NoError(t, err)
	assert.True(t, s.runner.HasPlugins())
}

func TestSuiteCancellation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Global.PreStageDurationMins = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(cfg)
	assert.NoError(t, err)
	assert.Error(t, s.Run(ctx))
}

func TestBuildDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.Global.Tags = map[string]interface{}{"site": "CERN"}

	md := hwmeta.Collect(context.Background())
	ts := time.Now()
	doc := buildDocument(cfg, md, map[string]interface{}{"db12": 12.5}, nil, nil, ts, ts)
	raw, err := json.MarshalIndent(doc, "", "  ")
	assert.NoError(t, err)

	var round map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &round))
	host := round["host"].(map[string]interface{})
	tags := host["tags"].(map[string]interface{})
	assert.Equal(t, "CERN", tags["site"])

	suiteSec := round["suite"].(map[string]interface{})
	assert.Equal(t, Version, suiteSec["version"])
}
