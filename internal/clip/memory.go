package clip

import (
	"fmt"
	"sync"

	"go.klb.dev/clipstash/internal/codec"
)

// Memory is a process-local clipboard. It backs headless environments
// (containers, CI, servers without a display) and doubles as the test
// clipboard: Set* calls behave like another application copying.
type Memory struct {
	mu      sync.Mutex
	text    []byte
	img     codec.RawImage
	hasImg  bool
	failing bool
	watchCh chan struct{}
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{watchCh: make(chan struct{}, 1)}
}

func (m *Memory) Name() string { return "in-memory" }

// SetText simulates an external copy of text.
func (m *Memory) SetText(s string) {
	m.mu.Lock()
	m.text, m.img, m.hasImg = []byte(s), codec.RawImage{}, false
	m.mu.Unlock()
	notify(m.watchCh)
}

// SetImage simulates an external copy of an image.
func (m *Memory) SetImage(img codec.RawImage) {
	m.mu.Lock()
	m.text, m.img, m.hasImg = nil, img, true
	m.mu.Unlock()
	notify(m.watchCh)
}

// SetBoth simulates an application publishing text and image
// representations of the same copy.
func (m *Memory) SetBoth(s string, img codec.RawImage) {
	m.mu.Lock()
	m.text, m.img, m.hasImg = []byte(s), img, true
	m.mu.Unlock()
	notify(m.watchCh)
}

// Clear empties the clipboard and signals a change.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.text, m.img, m.hasImg = nil, codec.RawImage{}, false
	m.mu.Unlock()
	notify(m.watchCh)
}

// FailReads makes subsequent reads report nothing, as a locked or busy OS
// clipboard does.
func (m *Memory) FailReads(fail bool) {
	m.mu.Lock()
	m.failing = fail
	m.mu.Unlock()
}

func (m *Memory) ReadText() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing || len(m.text) == 0 {
		return nil, false
	}
	return append([]byte(nil), m.text...), true
}

func (m *Memory) ReadImage() (codec.RawImage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing || !m.hasImg {
		return codec.RawImage{}, false
	}
	img := m.img
	img.Pix = append([]byte(nil), m.img.Pix...)
	return img, true
}

func (m *Memory) WriteText(text []byte) error {
	m.SetText(string(text))
	return nil
}

func (m *Memory) WriteImage(png []byte) error {
	raw, err := codec.DecodeImage(png)
	if err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	m.SetImage(raw)
	return nil
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}
