package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/consrope/internal/app"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		output string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "export <name=parts,...>...",
		Short: "Write a JSON document of materialized ropes",
		Long:  "Each argument name=a,b,c concatenates a, b and c into a rope stored under name. The document maps each name to its materialized value.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]app.ExportSpec, 0, len(args))
			for _, arg := range args {
				spec, err := app.ParseExportSpec(arg)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("export: %w", err)
					}
					defer f.Close()
					w = f
				}
				if err := a.Export(w, specs, stats); err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err := fmt.Fprintln(w)
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&stats, "stats", false, "record each rope's pre-flatten shape under _stats")
	return cmd
}
