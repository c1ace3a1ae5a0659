package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipstash/internal/hub"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Stream history changes as they happen",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd, v) },
	}

	clientFlags(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper) error {
	c, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stream, err := c.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	out := cmd.OutOrStdout()
	for {
		ev, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		if v.GetBool("json") {
			if err := printJSON(out, ev); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out, formatEvent(ev))
	}
}

func formatEvent(ev hub.Event) string {
	ts := ev.At.Local().Format("15:04:05")
	switch ev.Kind {
	case hub.KindError:
		return fmt.Sprintf("%s  error     %s from %s: %s", ts, ev.ContentType, ev.SourceApp, ev.Err)
	default:
		return fmt.Sprintf("%s  %-8s  #%d %s from %s", ts, ev.Kind, ev.ID, ev.ContentType, ev.SourceApp)
	}
}
