package watcher

import (
	"context"
	"errors"
	"os"

	"github.com/raoulx24/savekeeper/internal/snapshot"
)

// runWorker consumes accepted events one at a time and runs the
// stabilize+copy pipeline. Serialization is enforced by the suppression
// flag, not here: while a job runs, OnEvent drops everything.
func (c *Coordinator) runWorker(ctx context.Context) {
	for {
		j, ok := c.mb.Take(ctx)
		if !ok {
			return
		}

		_, err := c.writer.Write(ctx, j.Path)
		c.reportSnapshot(j.Path, err)

		// arm the window whether the task succeeded or not, so a
		// transient failure can't wedge the session in Suppressed
		c.armDebounce()
	}
}

func (c *Coordinator) reportSnapshot(path string, err error) {
	switch {
	case err == nil:
		// the writer already logged the created entry
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.log.Debug("snapshot of %s cancelled", path)
	case errors.Is(err, snapshot.ErrSourceVanished):
		c.log.Warn("snapshot skipped: %v", err)
	case errors.Is(err, snapshot.ErrUnsupportedEntryType):
		c.log.Error("snapshot failed: %v", err)
	case errors.Is(err, os.ErrPermission):
		c.log.Error("snapshot of %s failed: permission denied", path)
	default:
		c.log.Error("snapshot of %s failed: %v", path, err)
	}
}
