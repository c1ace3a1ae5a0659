//go:build linux

package focus

import (
	"os/exec"
	"time"
)

// New returns an xdotool-backed provider when xdotool is installed, and an
// empty Static provider otherwise.
func New(timeout time.Duration) Provider {
	if _, err := exec.LookPath("xdotool"); err != nil {
		return Static{}
	}
	return &Command{
		Name:    "xdotool",
		Args:    []string{"getactivewindow", "getwindowclassname"},
		Timeout: timeout,
		IconDir: ExecutableDir(),
	}
}
