package tui

import (
	"sync"
	"time"

	"github.com/rivo/tview"
)

// frameScheduler coalesces panel updates and caps the draw rate. Only the latest update
// per id survives until the next frame.
type frameScheduler struct {
	app          *tview.Application
	pending      map[string]func()
	order        []string
	mu           sync.Mutex
	quit         chan struct{}
	done         chan struct{}
	started      bool
	stopOnce     sync.Once
	frameTime    time.Duration
	drainTimeout time.Duration
}

func newFrameScheduler(app *tview.Application, targetFPS int, drainTimeout time.Duration) *frameScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	return &frameScheduler{
		app:          app,
		pending:      make(map[string]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		frameTime:    time.Second / time.Duration(targetFPS),
		drainTimeout: drainTimeout,
	}
}

func (f *frameScheduler) Start() {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	go f.run()
}

func (f *frameScheduler) Stop() {
	f.stopOnce.Do(func() {
		close(f.quit)
		f.mu.Lock()
		started := f.started
		f.mu.Unlock()
		if !started {
			return
		}
		select {
		case <-f.done:
		case <-time.After(f.drainTimeout):
		}
	})
}

func (f *frameScheduler) Schedule(id string, fn func()) {
	if f == nil {
		return
	}
	f.mu.Lock()
	if _, ok := f.pending[id]; !ok {
		f.order = append(f.order, id)
	}
	f.pending[id] = fn
	f.mu.Unlock()
}

func (f *frameScheduler) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.flush()
		case <-f.quit:
			f.flush()
			return
		}
	}
}

// flush hands every pending update to the UI goroutine in one batch. Without an
// application the batch runs inline.
func (f *frameScheduler) flush() {
	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return
	}
	batch := make([]func(), 0, len(f.pending))
	for _, id := range f.order {
		batch = append(batch, f.pending[id])
		delete(f.pending, id)
	}
	f.order = f.order[:0]
	f.mu.Unlock()

	apply := func() {
		for _, fn := range batch {
			fn()
		}
	}
	if f.app == nil {
		apply()
		return
	}
	f.app.QueueUpdateDraw(apply)
}
