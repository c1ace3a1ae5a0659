package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/focus"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/hub"
	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/monitor"
	"go.klb.dev/clipstash/internal/replay"
	"go.klb.dev/clipstash/internal/rpc"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the capture daemon",
		Long: `Watches the system clipboard and records every distinct copy.

Text and images are stored in a single SQLite file, by default clipboard.db
next to the clipstash executable. Copies made while a password manager is
focused are never recorded. The daemon also serves the history to the other
clipstash sub-commands over a local socket.

Precedence (lowest → highest): defaults → config file → CLIPSTASH_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("db", "", "history database path (default: clipboard.db next to the executable)")
	f.Duration("poll-interval", clip.DefaultPollInterval, "clipboard poll interval on platforms without change notification")
	f.Duration("focus-timeout", focus.DefaultTimeout, "upper bound on focused-application lookup")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(parent context.Context, v *viper.Viper) error {
	setupLogging(v)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := v.GetString("db")
	if dbPath == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return err
		}
		dbPath = p
	}

	store, err := history.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("history unavailable: %w", err)
	}
	defer store.Close()

	backend := clip.New(clip.Options{PollInterval: v.GetDuration("poll-interval")})
	defer backend.Close()

	slog.Info("clipstash starting",
		"version", Version,
		"db", dbPath,
		"backend", backend.Name(),
	)

	var (
		h     = hub.New()
		latch = &monitor.Latch{}
		mon   = monitor.New(store, backend, focus.New(v.GetDuration("focus-timeout")), latch, h)
		rep   = replay.New(store, backend, latch, h)
		svc   = rpc.NewService(store, rep, h, rpc.Info{
			Version:   Version,
			Backend:   backend.Name(),
			Database:  dbPath,
			StartedAt: time.Now().UTC(),
		})
		wg sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(ctx)
	}()

	sock := socketPath(v)
	if ln, err := ipc.Listen(sock); err != nil {
		slog.Warn("IPC socket unavailable, history is capture-only", "path", sock, "err", err)
	} else {
		slog.Info("IPC socket listening", "path", sock)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rpc.Serve(ctx, ln, svc); err != nil {
				slog.Error("rpc server stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("clipstash shutting down")
	wg.Wait()
	return nil
}
