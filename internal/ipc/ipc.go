// Package ipc locates and opens the local channel between the clipstash
// daemon and its CLI sub-commands.
//
// The channel is a Unix domain socket on Linux and macOS and a named pipe on
// Windows. The daemon listens; list, search, paste and friends dial it and
// fail fast when nothing is listening.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the default socket path.
const EnvSocket = "CLIPSTASH_SOCKET"

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/clipstash.sock, else $TMPDIR/clipstash.sock
//   - macOS:   $TMPDIR/clipstash.sock
//   - Windows: \\.\pipe\clipstash
//
// $CLIPSTASH_SOCKET wins on every platform.
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return socketPath()
}

// Listen creates a listener on path. On Unix a stale socket file left by a
// crashed daemon is removed first.
func Listen(path string) (net.Listener, error) {
	return listenIPC(path)
}

// Dial connects to the daemon at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	return dialIPC(ctx, path)
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := Dial(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}
