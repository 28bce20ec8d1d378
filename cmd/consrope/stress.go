package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/consrope/internal/app"
)

func newStressCmd(g *globalFlags) *cobra.Command {
	var (
		n           int
		readers     int
		skew        string
		piece       string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Build a skewed chain and flatten it from many goroutines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := app.ParseSkew(skew)
			if err != nil {
				return err
			}
			opts := app.StressOptions{N: n, Readers: readers, Skew: sk, Piece: piece}

			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				addr := metricsAddr
				if addr == "" && a.Config().Metrics.Enabled {
					addr = a.Config().Metrics.Addr
				}
				if addr == "" {
					report, err := a.Stress(ctx, opts)
					if err != nil {
						return err
					}
					return printReport(cmd, report)
				}

				// Serve metrics for the duration of the run.
				eg, ctx := errgroup.WithContext(ctx)
				ctx, cancel := context.WithCancel(ctx)
				eg.Go(func() error {
					return a.ServeMetrics(ctx, addr)
				})
				eg.Go(func() error {
					defer cancel()
					report, err := a.Stress(ctx, opts)
					if err != nil {
						return err
					}
					return printReport(cmd, report)
				})
				if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 5000, "number of pieces in the chain")
	cmd.Flags().IntVar(&readers, "readers", 32, "concurrent readers flattening the result")
	cmd.Flags().StringVar(&skew, "skew", "left", "chain shape: left|right")
	cmd.Flags().StringVar(&piece, "piece", "x", "string appended at each step")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	return cmd
}

func printReport(cmd *cobra.Command, r app.StressReport) error {
	w := cmd.OutOrStdout()
	_, err := fmt.Fprintf(w,
		"len=%d nodes=%d spine=%d build=%s\nreaders=%d read=%s distinct=%d materialized=%t\n",
		r.Built.Len, r.Built.Nodes, r.Built.RightSpine, r.Build,
		r.Readers, r.Read, r.Distinct, r.Final.Materialized,
	)
	return err
}
