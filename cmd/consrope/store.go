package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/consrope/internal/app"
)

func newStoreCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Persist and load materialized ropes",
		Long:  "Stores ropes in the backend named by the store section of the config (sqlite, badger or memory).",
	}
	cmd.AddCommand(newStorePutCmd(g), newStoreGetCmd(g), newStoreKeysCmd(g))
	return cmd
}

func newStorePutCmd(g *globalFlags) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "put [parts...]",
		Short: "Concatenate parts and store the result",
		Long:  "Concatenates the parts into a rope and stores its materialized value. Without --key a random key is generated and printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := key
			if k == "" {
				k = uuid.NewString()
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				n, err := a.Put(ctx, k, args...)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", k, n)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "key to store under (default: random UUID)")
	return cmd
}

func newStoreGetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				v, err := a.Get(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
				return err
			})
		},
	}
}

func newStoreKeysCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.Application) error {
				keys, err := a.Keys(ctx)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}
