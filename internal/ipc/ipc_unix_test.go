//go:build !windows

package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortDir keeps socket paths under the sun_path limit on macOS.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "cs")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestSocketPath_Env(t *testing.T) {
	t.Setenv(EnvSocket, "/custom/clip.sock")
	assert.Equal(t, "/custom/clip.sock", SocketPath())
}

func TestSocketPath_XDG(t *testing.T) {
	t.Setenv(EnvSocket, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/clipstash.sock", SocketPath())
}

func TestListenDial(t *testing.T) {
	path := filepath.Join(shortDir(t), "d.sock")
	assert.False(t, IsRunning(path))

	ln, err := Listen(path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	assert.True(t, IsRunning(path))

	c, err := Dial(context.Background(), path)
	require.NoError(t, err)
	c.Close()

	_, err = Listen(path)
	assert.ErrorIs(t, err, os.ErrExist, "a live daemon must not be displaced")
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	path := filepath.Join(shortDir(t), "s.sock")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Listen(path)
	require.NoError(t, err)
	ln.Close()
}
