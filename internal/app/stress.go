package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/consrope/internal/engine/rope"
)

// Skew selects which side of each concatenation grows.
type Skew string

// Chain shapes.
const (
	SkewLeft  Skew = "left"
	SkewRight Skew = "right"
)

// ParseSkew parses a --skew value.
func ParseSkew(s string) (Skew, error) {
	switch Skew(s) {
	case SkewLeft, SkewRight:
		return Skew(s), nil
	default:
		return "", fmt.Errorf("invalid skew %q: want left or right", s)
	}
}

// StressOptions configures a stress run.
type StressOptions struct {
	N       int
	Readers int
	Skew    Skew
	Piece   string
}

// StressReport summarizes a stress run.
type StressReport struct {
	Built    rope.Stats
	Final    rope.Stats
	Readers  int
	Build    time.Duration
	Read     time.Duration
	Distinct int
}

// Stress builds an N-piece skewed chain and flattens it from many readers
// at once. Every reader must observe the same content.
func (app *Application) Stress(ctx context.Context, opts StressOptions) (StressReport, error) {
	if opts.N < 1 {
		return StressReport{}, fmt.Errorf("stress: n must be at least 1, got %d", opts.N)
	}
	if opts.Readers < 1 {
		opts.Readers = 1
	}
	if opts.Skew == "" {
		opts.Skew = SkewLeft
	}
	if opts.Piece == "" {
		opts.Piece = "x"
	}

	start := time.Now()
	r, err := app.buildChain(opts)
	if err != nil {
		return StressReport{}, NewOperationError("stress", "build", err)
	}
	report := StressReport{
		Built:   r.Stats(),
		Readers: opts.Readers,
		Build:   time.Since(start),
	}
	app.logger.Debug("built %s chain: len=%d nodes=%d spine=%d", opts.Skew, report.Built.Len, report.Built.Nodes, report.Built.RightSpine)

	results := make([]string, opts.Readers)
	g, gctx := errgroup.WithContext(ctx)
	start = time.Now()
	for i := 0; i < opts.Readers; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := r.Flatten()
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StressReport{}, NewOperationError("stress", "flatten", err)
	}
	report.Read = time.Since(start)
	report.Final = r.Stats()

	seen := make(map[string]struct{}, 1)
	for _, s := range results {
		seen[s] = struct{}{}
	}
	report.Distinct = len(seen)
	if report.Distinct != 1 {
		return report, NewOperationError("stress", "verify", fmt.Errorf("readers observed %d distinct values", report.Distinct))
	}
	return report, nil
}

func (app *Application) buildChain(opts StressOptions) (*rope.Rope, error) {
	piece := rope.Flat(opts.Piece)
	var acc rope.StringLike = piece
	for i := 1; i < opts.N; i++ {
		var (
			next *rope.Rope
			err  error
		)
		if opts.Skew == SkewRight {
			next, err = app.concat.Concat(piece, acc)
		} else {
			next, err = app.concat.Concat(acc, piece)
		}
		if err != nil {
			return nil, err
		}
		acc = next
	}
	if r, ok := acc.(*rope.Rope); ok {
		return r, nil
	}
	return rope.FromString(opts.Piece), nil
}
