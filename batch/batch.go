// Package batch runs independent router.Pathfinder instances concurrently.
// Concurrency exists only across devices: each Pathfinder instance is still
// only ever touched by a single goroutine for its entire lifecycle.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aie-pathfinder/router/cmn/mono"
	"github.com/aie-pathfinder/router/cmn/nlog"
	"github.com/aie-pathfinder/router/router"
)

// ConnectOp is one flow or fixed-connection declaration to apply to a
// device's Pathfinder before routing.
type ConnectOp struct {
	// If IsFlow, the op registers a flow from SrcTile/SrcPort to
	// DstTile/DstPort; otherwise FixedConns are applied at FixedTile.
	IsFlow bool

	SrcTile, DstTile TileID
	SrcPort, DstPort router.Port
	IsPacket         bool

	FixedTile  TileID
	FixedConns []router.FixedConnection
}

// TileID aliases router.TileID so callers building a batch.Job don't need
// to import package router just to name a tile.
type TileID = router.TileID

// Job is one device to route: its target model, extent, options, and the
// ops to apply before calling FindPaths.
type Job struct {
	Name           string
	Model          router.TargetModel
	MaxCol, MaxRow int
	Options        router.Options
	Ops            []ConnectOp
	MaxIterations  int
}

// Result is one Job's outcome.
type Result struct {
	Name     string
	Solution router.Solution
	Stats    router.IterationStats
	Seconds  float64
	Ok       bool
	Err      error
}

// Route runs every job's Pathfinder concurrently, bounded by concurrency
// (a value <=0 means unbounded: SetLimit is then not called).
func Route(ctx context.Context, jobs []Job, concurrency int) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result{Name: job.Name, Err: ctx.Err()}
				return nil
			default:
			}
			results[i] = routeOne(job)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func routeOne(job Job) Result {
	pf := router.New(job.Model, job.MaxCol, job.MaxRow, job.Options)

	for _, op := range job.Ops {
		if op.IsFlow {
			if err := pf.AddFlow(op.SrcTile, op.SrcPort, op.DstTile, op.DstPort, op.IsPacket); err != nil {
				return Result{Name: job.Name, Err: err}
			}
			continue
		}
		if err := pf.AddFixedConnection(op.FixedTile, op.FixedConns); err != nil {
			return Result{Name: job.Name, Err: err}
		}
	}

	maxIter := job.MaxIterations
	if maxIter <= 0 {
		maxIter = router.DefaultOptions().MaxIterations
	}

	start := mono.NanoTime()
	sol, ok := pf.FindPaths(maxIter)
	seconds := float64(mono.NanoTime()-start) / 1e9

	stats := pf.Stats()
	nlog.Infof("batch: device %q routed ok=%v iterations=%d illegalEdges=%d duration=%.4fs", job.Name, ok, stats.Iterations, stats.IllegalEdges, seconds)

	return Result{Name: job.Name, Solution: sol, Stats: stats, Seconds: seconds, Ok: ok}
}
