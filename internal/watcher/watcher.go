// Package watcher coordinates filesystem events for one watch session:
// it filters them against the configured name pattern, collapses bursts
// behind a suppression window, and hands accepted events to the
// snapshot writer one at a time.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/fsprobe"
	"github.com/raoulx24/savekeeper/internal/logging"
	"github.com/raoulx24/savekeeper/internal/mailbox"
	"github.com/raoulx24/savekeeper/internal/snapshot"
)

// ErrWatchSetup is the one fatal session error: the session never
// starts. Everything after a successful start is reported and survived.
var ErrWatchSetup = errors.New("watch setup failed")

// ChangeKind classifies an incoming filesystem event.
type ChangeKind string

const (
	KindCreated  ChangeKind = "created"
	KindModified ChangeKind = "modified"
	KindMoved    ChangeKind = "moved"
)

type state int

const (
	stateIdle state = iota
	stateSuppressed
	stateStopped
)

type job struct {
	Path     string
	Detected time.Time
}

// Coordinator owns the suppression state machine for one watch session.
//
// States: Idle accepts the next matching event; Suppressed drops events
// until the window after the current snapshot elapses; Stopped is
// terminal. The suppression flag is set before any I/O happens so that
// a burst of events produces exactly one in-flight snapshot task —
// events arriving while suppressed are dropped, not queued, because the
// next stabilized snapshot captures the latest state anyway.
type Coordinator struct {
	mu     sync.Mutex
	st     state
	paused bool
	timer  *time.Timer

	dir      string
	pattern  string
	mode     string
	timeout  time.Duration
	interval time.Duration

	writer *snapshot.Writer
	mb     *mailbox.Mailbox[job]
	log    logging.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// New builds a coordinator for one immutable watch spec.
func New(src config.SourceConfig, writer *snapshot.Writer, log logging.Logger) *Coordinator {
	return &Coordinator{
		dir:      src.Path,
		pattern:  src.Pattern,
		mode:     src.Watch.Mode,
		timeout:  src.Watch.Timeout.Std(),
		interval: src.Watch.PollInterval.Std(),
		writer:   writer,
		mb:       mailbox.New[job](),
		log:      logging.OrNop(log),
		done:     make(chan struct{}),
	}
}

// OnEvent receives one raw filesystem event. Events that don't match
// the name pattern, arrive while suppressed, or arrive after Stop are
// dropped. A matching event flips the coordinator to Suppressed first
// and then dispatches the snapshot task asynchronously.
func (c *Coordinator) OnEvent(path string, kind ChangeKind) {
	switch kind {
	case KindCreated, KindModified, KindMoved:
	default:
		return
	}

	c.mu.Lock()
	if c.st != stateIdle {
		c.mu.Unlock()
		return
	}
	if ok, err := filepath.Match(c.pattern, filepath.Base(path)); err != nil || !ok {
		c.mu.Unlock()
		return
	}
	c.st = stateSuppressed
	c.mu.Unlock()

	c.log.Debug("event accepted: %s (%s)", path, kind)
	c.mb.Put(job{Path: path, Detected: time.Now()})
}

// Pause forces Suppressed without running a snapshot task, for the
// duration of a restore. No timer is armed; only Resume clears it.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateStopped {
		return
	}
	c.paused = true
	c.cancelTimerLocked()
	if c.st == stateIdle {
		c.st = stateSuppressed
	}
	c.log.Debug("coordinator paused")
}

// Resume clears a Pause and returns the coordinator to Idle.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateStopped || !c.paused {
		return
	}
	c.paused = false
	if c.st == stateSuppressed {
		c.st = stateIdle
	}
	c.log.Debug("coordinator resumed")
}

// Stop moves the coordinator to its terminal state. Once stopped,
// OnEvent is permanently a no-op. An in-flight snapshot copy is allowed
// to finish; the worker observes the stop at its next check-in.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.st = stateStopped
		c.cancelTimerLocked()
		c.mu.Unlock()

		close(c.done)
		c.log.Info("watch session stopped")
	})
}

// Start validates the watch spec, launches the snapshot worker, and
// runs the configured watch strategy until ctx is cancelled or Stop is
// called. It blocks for the lifetime of the session.
func (c *Coordinator) Start(ctx context.Context) error {
	st, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatchSetup, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrWatchSetup, c.dir)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	go c.runWorker(ctx)

	switch c.mode {
	case "fsnotify":
		return c.runFsNotify(ctx)

	case "poll":
		c.runPoller(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(c.dir)
		if res.Supported {
			return c.runFsNotify(ctx)
		}
		c.log.Warn("fsnotify disabled: %s", res.Reason)
		c.runPoller(ctx)
		return nil

	default:
		return fmt.Errorf("%w: unknown mode %q", ErrWatchSetup, c.mode)
	}
}

// armDebounce starts the suppression window after a snapshot task
// finishes. One cancellable timer per coordinator; a zero timeout
// clears suppression immediately.
func (c *Coordinator) armDebounce() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st != stateSuppressed || c.paused {
		return
	}
	if c.timeout <= 0 {
		c.st = stateIdle
		return
	}
	c.timer = time.AfterFunc(c.timeout, c.clearSuppression)
}

func (c *Coordinator) clearSuppression() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timer = nil
	if c.st == stateSuppressed && !c.paused {
		c.st = stateIdle
		c.log.Debug("suppression window elapsed")
	}
}

func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
