//go:build !darwin && !windows && !linux

package clip

// New returns the in-memory backend; there is no supported system clipboard
// on this platform.
func New(_ Options) Backend {
	return NewMemory()
}
