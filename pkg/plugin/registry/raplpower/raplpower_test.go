/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package raplpower

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/timeseries"
)

func fakePowercap(t *testing.T, microjoules string) (string, func(string)) {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "intel-rapl:0")
	assert.NoError(t, os.MkdirAll(dir, 0o755))

	counter := filepath.Join(dir, "energy_uj")
	write := func(value string) {
		assert.NoError(t, os.WriteFile(counter, []byte(value+"\n"), 0o644))
	}
	write(microjoules)
	return base, write
}

func TestCollectDifferentiatesEnergy(t *testing.T) {
	base, write := fakePowercap(t, "1000000")

	p, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, base)
	assert.NoError(t, err)
	assert.NoError(t, p.OnStart())

	// First tick seeds the baseline and is skipped quietly, it is not a
	// collection failure.
	_, err = p.collect()
	assert.ErrorIs(t, err, timeseries.ErrNoSample)

	time.Sleep(20 * time.Millisecond)
	write("2000000")

	watts, err := p.collect()
	assert.NoError(t, err)
	// 1 J over roughly 20ms, so tens of watts; bounds are loose since the
	// elapsed time is measured, not fixed.
	assert.Greater(t, watts, 1.0)
	assert.Less(t, watts, 1000.0)
}

func TestCollectDropsWrappedCounter(t *testing.T) {
	base, write := fakePowercap(t, "5000000")

	p, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, base)
	assert.NoError(t, err)
	assert.NoError(t, p.OnStart())

	_, err = p.collect()
	assert.Error(t, err)

	time.Sleep(10 * time.Millisecond)
	write("100")

	_, err = p.collect()
	assert.Error(t, err)
}

func TestNewFailsWithoutCounters(t *testing.T) {
	_, err := newWithBasePath(map[string]interface{}{"interval_mins": 1}, t.TempDir())
	assert.Error(t, err)
}
