/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package benchmarks

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

// DB12 is the DIRAC Benchmark 2012: a short, fixed CPU workload whose
// inverse runtime estimates per-core performance. One worker per requested
// core runs the workload concurrently, so the combined score reflects the
// whole allocation under full load.

const (
	db12Iterations = 1000 * 1000
	db12Norm       = 250.0
)

type (
	DB12Result struct {
		Value     float64   `json:"value"`
		SingleAvg float64   `json:"single_avg"`
		Cores     []float64 `json:"cores"`
	}
)

// RunDB12 executes the workload on ncores workers and reports the summed
// score, the per-core average and each core's own score.
func RunDB12(ctx context.Context, ncores int) *DB12Result {
	if ncores <= 0 {
		ncores = 1
	}

	scores := make([]float64, ncores)
	var wg sync.WaitGroup
	for i := 0; i < ncores; i++ {
		i := i
		util.GoWithSyncGroup(func() {
			scores[i] = db12Single(ctx)
		}, &wg)
	}
	wg.Wait()

	result := &DB12Result{Cores: scores}
	for _, s := range scores {
		result.Value += s
	}
	result.SingleAvg = result.Value / float64(ncores)
	return result
}

// db12Single runs the gaussian accumulation loop once and normalizes its
// wall time into a score. Cancelling the context yields a zero score.
func db12Single(ctx context.Context) float64 {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	start := time.Now()
	m := 0.0
	p := 0.0
	for i := 0; i < db12Iterations; i++ {
		if i%65536 == 0 && ctx.Err() != nil {
			return 0
		}
		t := rng.NormFloat64()*1.0 + 10.0
		m += t
		p += t * t
	}
	_ = m
	_ = p

	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return db12Norm / 1000.0 / elapsed
}
