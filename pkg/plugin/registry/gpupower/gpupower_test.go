/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package gpupower

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePowerDraw(t *testing.T) {
	out := "71.45 W\n68.20 W\n"
	v, err := parsePowerDraw(out)
	assert.NoError(t, err)
	assert.InDelta(t, 139.65, v, 1e-9)
}

func TestParsePowerDrawSkipsNA(t *testing.T) {
	out := "71.45 W\n[N/A]\n"
	v, err := parsePowerDraw(out)
	assert.NoError(t, err)
	assert.InDelta(t, 71.45, v, 1e-9)
}

func TestParsePowerDrawEmpty(t *testing.T) {
	_, err := parsePowerDraw("\n[N/A]\n")
	assert.Error(t, err)
}
