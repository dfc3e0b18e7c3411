package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// closeTimeout bounds how long session teardown waits for the OS-level
// watcher to release; a hung watcher thread must not block shutdown.
const closeTimeout = 5 * time.Second

// runFsNotify feeds OS notifications into OnEvent until the session
// ends. The watch is non-recursive: one directory, entries directly
// under it.
func (c *Coordinator) runFsNotify(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatchSetup, err)
	}
	defer c.closeWatcher(w)

	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("%w: %v", ErrWatchSetup, err)
	}

	c.log.Info("watching %s for %s", c.dir, c.pattern)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				c.log.Error("events channel closed")
				return nil
			}
			if kind, relevant := mapOp(ev.Op); relevant {
				c.OnEvent(ev.Name, kind)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Error("fsnotify error: %v", err)
		}
	}
}

func (c *Coordinator) closeWatcher(w *fsnotify.Watcher) {
	closed := make(chan struct{})
	go func() {
		_ = w.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(closeTimeout):
		c.log.Warn("watcher teardown timed out, proceeding")
	}
}

// mapOp translates an fsnotify op bitmask into the coordinator's event
// vocabulary. Removes and chmods are not snapshot triggers.
func mapOp(op fsnotify.Op) (ChangeKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreated, true
	case op.Has(fsnotify.Write):
		return KindModified, true
	case op.Has(fsnotify.Rename):
		return KindMoved, true
	default:
		return "", false
	}
}
