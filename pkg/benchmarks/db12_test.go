/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package benchmarks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunDB12(t *testing.T) {
	result := RunDB12(context.Background(), 2)

	assert.Len(t, result.Cores, 2)
	assert.Greater(t, result.Value, 0.0)
	for _, s := range result.Cores {
		assert.Greater(t, s, 0.0)
	}
	assert.InDelta(t, result.Value/2, result.SingleAvg, 1e-9)
}

func TestRunDB12DefaultsToOneCore(t *testing.T) {
	result := RunDB12(context.Background(), 0)
	assert.Len(t, result.Cores, 1)
}

func TestRunDB12Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := RunDB12(ctx, 1)
	assert.Equal(t, 0.0, result.Value)
}
