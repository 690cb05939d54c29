package fuzz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// ParallelOptions configures a batch of random test instances.
type ParallelOptions struct {
	// OutputDir is the parent for the per-instance test_NNNNNN dirs.
	OutputDir string
	// Instances is the number of random programs to test.
	Instances int
	// Workers bounds concurrency. Zero or negative means Instances.
	Workers int
	// InstPerExt is the instruction count drawn per extension.
	InstPerExt int
	// Seed makes the batch reproducible. Each instance derives its own
	// source from Seed and its index.
	Seed int64
}

// RunParallel drives Instances random tests with at most Workers running at
// once. Each instance gets its own directory and random source; a failing
// instance is logged and does not stop the batch. The returned count is the
// number of instances whose final round still showed differences.
func (h *Harness) RunParallel(ctx context.Context, opts ParallelOptions) (int, error) {
	if opts.Instances <= 0 {
		return 0, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = opts.Instances
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	results := make([]*InstanceResult, opts.Instances)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Instances; i++ {
		i := i
		g.Go(func() error {
			dir := filepath.Join(opts.OutputDir, fmt.Sprintf("test_%06d", i))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create instance dir: %w", err)
			}

			slog.Info("starting random test", "id", i)
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			res, err := h.RunRandomInstance(ctx, dir, opts.InstPerExt, rng)
			if err != nil {
				slog.Error("random test failed", "id", i, "err", err)
				return nil
			}
			results[i] = res
			slog.Info("random test completed", "id", i,
				"clean", res.FinalComparison().Clean())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	divergent := 0
	for _, res := range results {
		if res != nil && !res.FinalComparison().Clean() {
			divergent++
		}
	}
	return divergent, nil
}

// FinalComparison returns the last round that ran: minimal, then retry, then
// the initial comparison.
func (r *InstanceResult) FinalComparison() *Comparison {
	switch {
	case r.Minimal != nil:
		return r.Minimal
	case r.Retry != nil:
		return r.Retry
	default:
		return r.Initial
	}
}
