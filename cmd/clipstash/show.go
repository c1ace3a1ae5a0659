package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/codec"
	"go.klb.dev/clipstash/internal/logging"
	"go.klb.dev/clipstash/internal/rpc"
)

func newShowCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print one record's content",
		Long: `Writes a text record to stdout verbatim. Image records are written as PNG
to --out, or to stdout when stdout is not a terminal.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
				it, err := c.Get(ctx, id)
				if err != nil {
					return err
				}
				return showItem(cmd, v, it)
			})
		},
	}

	cmd.Flags().StringP("out", "o", "", "write image records to this file")
	clientFlags(cmd)
	return cmd
}

func showItem(cmd *cobra.Command, v *viper.Viper, it rpc.Item) error {
	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		return printJSON(out, it)
	}
	if it.ContentType == "TEXT" {
		_, err := fmt.Fprint(out, it.Text)
		return err
	}

	data, err := codec.DecodeBase64(it.Image)
	if err != nil {
		return err
	}
	if path := v.GetString("out"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), path)
		return nil
	}
	if logging.IsTTY(out) {
		return fmt.Errorf("record %d is an image; use --out or redirect stdout", it.ID)
	}
	_, err = out.Write(data)
	return err
}

func newPasteCmd() *cobra.Command {
	return newByIDCmd("paste ID", "Put a record back on the clipboard",
		`Copies the record to the system clipboard and moves it to the top of the
history. The daemon does not record its own paste as a new copy.`,
		"pasted", (*rpc.Client).Paste)
}

func newTouchCmd() *cobra.Command {
	return newByIDCmd("touch ID", "Move a record to the top of the history",
		"Bumps the record's timestamp without changing the clipboard.",
		"touched", (*rpc.Client).Touch)
}

func newByIDCmd(use, short, long, verb string, call func(*rpc.Client, context.Context, int64) (rpc.Item, error)) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
				it, err := call(c, ctx, id)
				if err != nil {
					return err
				}
				if v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), it)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s #%d (%s)\n", verb, it.ID, preview(it))
				return err
			})
		},
	}

	clientFlags(cmd)
	return cmd
}
