//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
// #include <stdlib.h>
//
// static HWND clipstash_create_listener_window();
// static void clipstash_pump_messages(HWND hwnd, int* changed);
//
// static LRESULT CALLBACK clipstash_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipstash_create_listener_window() {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipstash_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipstashListener";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "ClipstashListener", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     if (hwnd == NULL) { return NULL; }
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static void clipstash_pump_messages(HWND hwnd, int* changed) {
//     MSG msg;
//     *changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { *changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
// }
//
// static void clipstash_destroy_listener_window(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
import "C"

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

const pumpInterval = 50 * time.Millisecond

type windowsBackend struct {
	system
	watchCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New returns the Windows clipboard backend driven by
// AddClipboardFormatListener notifications. If the listener window cannot be
// created it polls instead.
func New(opts Options) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	b := &windowsBackend{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	ready := make(chan bool)
	go b.pump(ready)
	if !<-ready {
		slog.Warn("clipboard listener window unavailable, polling instead")
		return NewPolling(system{}, opts.pollInterval(), nil)
	}
	return b
}

func (b *windowsBackend) Name() string { return "Windows clipboard listener" }

// pump owns the listener window. Messages for a window are only delivered to
// the thread that created it, so creation and pumping share one locked thread.
func (b *windowsBackend) pump(ready chan<- bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd := C.clipstash_create_listener_window()
	if hwnd == nil {
		ready <- false
		return
	}
	defer C.clipstash_destroy_listener_window(hwnd)
	ready <- true

	t := time.NewTicker(pumpInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			var changed C.int
			C.clipstash_pump_messages(hwnd, &changed)
			if changed != 0 {
				notify(b.watchCh)
			}
		}
	}
}

func (b *windowsBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *windowsBackend) Close()                { b.once.Do(func() { close(b.done) }) }
