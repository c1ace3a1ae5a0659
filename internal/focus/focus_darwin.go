//go:build darwin

package focus

import "time"

// New returns a provider that asks System Events for the frontmost process.
func New(timeout time.Duration) Provider {
	return &Command{
		Name:    "osascript",
		Args:    []string{"-e", `tell application "System Events" to get name of first application process whose frontmost is true`},
		Timeout: timeout,
		IconDir: ExecutableDir(),
	}
}
