// Package pool runs a batch of independent stabilizer-sampling runs
// concurrently, one Simulator per RunSpec, sharing no mutable state beyond
// an optional resource.Controller bounding how many run at once.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/stabframe"
	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/manifest"
	"github.com/hupe1980/stabframe/record"
	"github.com/hupe1980/stabframe/resource"
)

// RunSpec describes one independent simulator run: its own seed, shot
// count, circuit, and (optional) measurement/detector sinks. Two RunSpecs
// in the same Run call share nothing but the resource.Controller gating how
// many of them execute at once.
type RunSpec struct {
	Seed           uint64
	NumQubits      int
	NumShots       int
	Circuit        circuit.Circuit
	MaxLookback    int
	Writer         record.Writer
	DetectorWriter record.Writer
	ManifestStore  *manifest.Store
}

// Result is the outcome of one RunSpec: the constructed Simulator (already
// closed, so its Flush/SaveManifest return ErrClosed; Record/Detectors stay
// readable, though FinalFlush has cleared any batch that had no Writer),
// the saved manifest filename if a ManifestStore was configured, and any
// error encountered running or flushing that spec.
type Result struct {
	Simulator        *stabframe.Simulator
	ManifestFilename string
	Err              error
}

// Run executes every spec concurrently, each in its own goroutine with its
// own Simulator instance, and returns one Result per spec in input order.
// If controller is non-nil, each Simulator acquires one concurrent-run slot
// from it before constructing its frame tables, bounding how many runs
// execute in parallel. Every per-spec failure, including one caused by ctx
// cancellation, is reported in that spec's Result.Err, never via the
// returned error, which is always nil; a single failing run doesn't abort
// the others.
func Run(ctx context.Context, specs []RunSpec, controller *resource.Controller) ([]Result, error) {
	results := make([]Result, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = runOne(gctx, spec, controller)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("pool: %w", err)
	}
	return results, nil
}

func runOne(ctx context.Context, spec RunSpec, controller *resource.Controller) Result {
	opts := []stabframe.Option{
		stabframe.WithSeed(spec.Seed),
	}
	if spec.MaxLookback > 0 {
		opts = append(opts, stabframe.WithMaxLookback(spec.MaxLookback))
	}
	if spec.Writer != nil {
		opts = append(opts, stabframe.WithWriter(spec.Writer))
	}
	if spec.DetectorWriter != nil {
		opts = append(opts, stabframe.WithDetectorWriter(spec.DetectorWriter))
	}
	if spec.ManifestStore != nil {
		opts = append(opts, stabframe.WithManifestStore(spec.ManifestStore))
	}
	if controller != nil {
		opts = append(opts, stabframe.WithController(controller))
	}

	sim, err := stabframe.New(ctx, spec.NumQubits, spec.NumShots, opts...)
	if err != nil {
		return Result{Err: fmt.Errorf("pool: constructing simulator: %w", err)}
	}
	// Close releases the Writer(s) and the controller slot acquired above;
	// it does not clear Simulator.Record()/Detectors(), so the caller can
	// still inspect them on the returned Result after this goroutine exits.
	defer sim.Close()

	if err := sim.Run(ctx, spec.Circuit); err != nil {
		return Result{Simulator: sim, Err: fmt.Errorf("pool: run: %w", err)}
	}

	digest := stabframe.DigestCircuit(spec.Circuit)
	if err := sim.FinalFlush(ctx); err != nil {
		return Result{Simulator: sim, Err: fmt.Errorf("pool: flush: %w", err)}
	}

	var manifestFilename string
	if spec.ManifestStore != nil {
		manifestFilename, err = sim.SaveManifest(ctx, digest)
		if err != nil {
			return Result{Simulator: sim, Err: fmt.Errorf("pool: saving manifest: %w", err)}
		}
	}

	return Result{Simulator: sim, ManifestFilename: manifestFilename}
}
