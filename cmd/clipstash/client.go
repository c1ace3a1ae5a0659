package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/rpc"
)

const requestTimeout = 10 * time.Second

// dialDaemon connects to a running daemon, failing fast when none is
// listening.
func dialDaemon(v *viper.Viper) (*rpc.Client, error) {
	sock := socketPath(v)
	if !ipc.IsRunning(sock) {
		return nil, fmt.Errorf("clipstash daemon is not running on %s (start it with \"clipstash run\")", sock)
	}
	return rpc.Dial(sock)
}

// withDaemon runs fn against the daemon with a bounded request context.
func withDaemon(v *viper.Viper, fn func(ctx context.Context, c *rpc.Client) error) error {
	c, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return fn(ctx, c)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(enc))
	return err
}

const previewWidth = 60

func printItems(w io.Writer, items []rpc.Item, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No history.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tAGE\tSOURCE\tTYPE\tCONTENT\n")
	_, _ = fmt.Fprintf(tw, "--\t---\t------\t----\t-------\n")
	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			it.ID, fmtAge(it.Timestamp, now), it.SourceApp, it.ContentType, preview(it))
	}
	_ = tw.Flush()
}

func preview(it rpc.Item) string {
	if it.ContentType != "TEXT" {
		return fmt.Sprintf("[image, %s]", humanize.Bytes(uint64(it.Size)))
	}
	s := strings.Join(strings.Fields(it.Text), " ")
	if r := []rune(s); len(r) > previewWidth {
		s = string(r[:previewWidth-1]) + "…"
	}
	return s
}

func fmtAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := now.Sub(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", max(0, int(age.Seconds())))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}
