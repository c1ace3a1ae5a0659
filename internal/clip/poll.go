package clip

import (
	"sync"
	"time"

	"go.klb.dev/clipstash/internal/codec"
)

// Source is the read and write half of a Backend, without change detection.
type Source interface {
	ReadText() ([]byte, bool)
	ReadImage() (codec.RawImage, bool)
	WriteText(text []byte) error
	WriteImage(png []byte) error
}

// Polling adds change detection to a Source by sampling a fingerprint of its
// content on a ticker. Writes made through Polling always produce exactly one
// signal, even when the new content equals the old, so a polled clipboard
// behaves like one with native change notification.
type Polling struct {
	src      Source
	sample   func() string
	interval time.Duration

	mu      sync.Mutex // serializes sampling with writes
	last    string
	watchCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewPolling starts polling src every interval. sample returns a fingerprint
// of the current content; nil fingerprints whatever src reads.
func NewPolling(src Source, interval time.Duration, sample func() string) *Polling {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Polling{
		src:      src,
		sample:   sample,
		interval: interval,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if p.sample == nil {
		p.sample = p.readFingerprint
	}
	p.last = p.sample()
	go p.run()
	return p
}

func (p *Polling) run() {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-t.C:
			p.check()
		}
	}
}

func (p *Polling) check() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fp := p.sample(); fp != p.last {
		p.last = fp
		notify(p.watchCh)
	}
}

// write runs fn and, on success, records the resulting fingerprint so the
// ticker does not report the write a second time.
func (p *Polling) write(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	p.last = p.sample()
	notify(p.watchCh)
	return nil
}

func (p *Polling) readFingerprint() string {
	if text, ok := p.src.ReadText(); ok {
		return codec.Fingerprint("text", text)
	}
	if img, ok := p.src.ReadImage(); ok {
		return codec.Fingerprint("image", img.Pix)
	}
	return ""
}

func (p *Polling) Name() string                      { return "polling every " + p.interval.String() }
func (p *Polling) ReadText() ([]byte, bool)          { return p.src.ReadText() }
func (p *Polling) ReadImage() (codec.RawImage, bool) { return p.src.ReadImage() }

func (p *Polling) WriteText(text []byte) error {
	return p.write(func() error { return p.src.WriteText(text) })
}

func (p *Polling) WriteImage(png []byte) error {
	return p.write(func() error { return p.src.WriteImage(png) })
}

func (p *Polling) Watch() <-chan struct{} { return p.watchCh }
func (p *Polling) Close()                 { p.once.Do(func() { close(p.done) }) }
