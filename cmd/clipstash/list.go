package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/rpc"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show recent clipboard history",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
				items, err := c.List(ctx, v.GetInt("limit"))
				if err != nil {
					return err
				}
				return renderItems(cmd, v, items)
			})
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "number of records to show (0 = all)")
	clientFlags(cmd)
	return cmd
}

func newSearchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Find text records containing TERM",
		Long: `Lists text records whose content contains TERM, most recent first.
ASCII letters match case-insensitively; % and _ are matched literally.
Images are never returned.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
				items, err := c.Search(ctx, args[0])
				if err != nil {
					return err
				}
				return renderItems(cmd, v, items)
			})
		},
	}

	clientFlags(cmd)
	return cmd
}

func renderItems(cmd *cobra.Command, v *viper.Viper, items []rpc.Item) error {
	if v.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), items)
	}
	printItems(cmd.OutOrStdout(), items, time.Now())
	return nil
}
