// Package focus resolves the application that owned keyboard focus when a
// clipboard change was observed. Resolution is best effort: every failure
// degrades to an empty Context, never an error.
package focus

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single Current call on command-backed providers.
// A cold osascript call to System Events regularly takes over a second.
const DefaultTimeout = 2 * time.Second

// Context describes the frontmost application. AppName is empty when it
// could not be determined; IconPath is empty when no cached icon exists.
type Context struct {
	AppName  string `json:"app_name"`
	IconPath string `json:"icon_path"`
}

// Provider reports the current focus context.
type Provider interface {
	Current(ctx context.Context) Context
}

// Static always reports the same context. Used on platforms without focus
// introspection and in tests.
type Static Context

func (s Static) Current(context.Context) Context { return Context(s) }

// Func adapts a plain function to Provider.
type Func func(ctx context.Context) Context

func (f Func) Current(ctx context.Context) Context { return f(ctx) }

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Command asks an external helper for the frontmost application's name and
// looks its icon up in IconDir.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration
	// IconDir holds cached icons named "<AppName>.png".
	IconDir string
	Run     Runner
}

func (c *Command) Current(ctx context.Context) Context {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := c.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, c.Name, c.Args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("focus lookup timed out, source app unknown", "helper", c.Name, "timeout", timeout)
		} else {
			slog.Debug("focus lookup failed", "helper", c.Name, "err", err)
		}
		return Context{}
	}
	name := firstLine(out)
	if name == "" {
		return Context{}
	}
	return Context{AppName: name, IconPath: IconPath(c.IconDir, name)}
}

func firstLine(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// IconPath returns dir/<app>.png if that file exists, otherwise "".
// Names that would escape dir are rejected.
func IconPath(dir, app string) string {
	if dir == "" || app == "" || strings.ContainsAny(app, `/\`) || app == "." || app == ".." {
		return ""
	}
	p := filepath.Join(dir, app+".png")
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		return ""
	}
	return p
}

// ExecutableDir is the default icon cache location.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
