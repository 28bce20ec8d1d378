package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/consrope/internal/app"
)

func newEvalCmd(g *globalFlags) *cobra.Command {
	var (
		lang string
		expr string
	)

	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Run a Lua or Risor script with rope bindings",
		Long:  "Runs a .lua or .risor script, or the source given with -e, and prints its result. Rope results are materialized before printing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && expr == "" {
				return fmt.Errorf("eval: a script file or -e source is required")
			}
			if len(args) == 1 && expr != "" {
				return fmt.Errorf("eval: use either a script file or -e, not both")
			}

			var language app.Language
			if lang != "" {
				l, err := app.ParseLanguage(lang)
				if err != nil {
					return err
				}
				language = l
			} else if expr != "" {
				language = app.LanguageLua
			}

			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				var (
					out string
					err error
				)
				if expr != "" {
					out, err = a.Eval(ctx, language, expr)
				} else {
					out, err = a.EvalFile(ctx, args[0], language)
				}
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "script language: lua|risor (default: from file extension, lua for -e)")
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "evaluate source instead of a file")
	return cmd
}

func printResult(w io.Writer, out string) error {
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
