/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package cpufreq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeSysfs(t *testing.T, freqs map[string]string) string {
	t.Helper()
	base := t.TempDir()
	for cpu, freq := range freqs {
		dir := filepath.Join(base, cpu, "cpufreq")
		assert.NoError(t, os.MkdirAll(dir, 0o755))
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "scaling_cur_freq"), []byte(freq+"\n"), 0o644))
	}
	return base
}

func TestCollectAveragesOverCPUs(t *testing.T) {
	base := fakeSysfs(t, map[string]string{
		"cpu0": "1200000",
		"cpu1": "1800000",
	})

	p, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, base)
	assert.NoError(t, err)
	assert.Equal(t, "CpuFrequencyPlugin", p.Name())
	assert.Equal(t, []string{"cpu-frequency"}, p.MetricNames())

	v, err := p.collect()
	assert.NoError(t, err)
	assert.Equal(t, 1500000.0, v)
}

func TestCollectSkipsUnreadableCPUs(t *testing.T) {
	base := fakeSysfs(t, map[string]string{
		"cpu0": "1000000",
		"cpu1": "not-a-number",
	})

	p, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, base)
	assert.NoError(t, err)

	v, err := p.collect()
	assert.NoError(t, err)
	assert.Equal(t, 1000000.0, v)
}

func TestNewFailsWithoutCPUs(t *testing.T) {
	_, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, t.TempDir())
	assert.Error(t, err)
}

func TestNewRejectsBadInterval(t *testing.T) {
	base := fakeSysfs(t, map[string]string{"cpu0": "1"})
	_, err := newWithBasePath(map[string]interface{}{"interval_mins": -1}, base)
	assert.Error(t, err)
}
