package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/rpc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDaemon(v, func(ctx context.Context, c *rpc.Client) error {
				st, err := c.Status(ctx)
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				if v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), st)
				}
				printStatus(cmd.OutOrStdout(), st, socketPath(v), time.Now())
				return nil
			})
		},
	}

	clientFlags(cmd)
	return cmd
}

func printStatus(w io.Writer, st *rpc.StatusResponse, sock string, now time.Time) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%s\n", st.Version)
	fmt.Fprintf(tw, "Socket:\t%s\n", sock)
	fmt.Fprintf(tw, "Backend:\t%s\n", st.Backend)
	fmt.Fprintf(tw, "Database:\t%s\n", st.Database)
	fmt.Fprintf(tw, "Records:\t%d\n", st.Records)
	fmt.Fprintf(tw, "Watchers:\t%d\n", st.Subscribers)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(tw, "Started:\t%s (%s)\n", st.StartedAt.Local().Format(time.RFC3339), fmtAge(st.StartedAt, now))
	}
	if e := st.Latest; e != nil {
		fmt.Fprintf(tw, "Last event:\t%s #%d %s (%s)\n", e.Kind, e.ID, e.SourceApp, fmtAge(e.At, now))
	}
	_ = tw.Flush()
}
