//go:build !darwin && !linux

package focus

import "time"

// New returns a provider that never knows the focused application.
func New(_ time.Duration) Provider {
	return Static{}
}
