package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// runPoller is the fallback strategy for filesystems where fsnotify
// delivers nothing. It rescans the watched directory on a fixed
// interval and synthesizes created/modified events from mtime changes.
func (c *Coordinator) runPoller(ctx context.Context) {
	interval := c.interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	// prime with the current state so startup doesn't snapshot
	// everything already present
	seen := map[string]time.Time{}
	c.pollOnce(seen, true)

	c.log.Info("polling %s every %s for %s", c.dir, interval, c.pattern)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(seen, false)
		}
	}
}

func (c *Coordinator) pollOnce(seen map[string]time.Time, prime bool) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.log.Error("poll: reading %s: %v", c.dir, err)
		return
	}

	for _, e := range entries {
		full := filepath.Join(c.dir, e.Name())

		info, err := e.Info()
		if err != nil {
			continue
		}

		mod := info.ModTime()
		last, known := seen[full]
		seen[full] = mod

		if prime {
			continue
		}
		switch {
		case !known:
			c.OnEvent(full, KindCreated)
		case mod.After(last):
			c.OnEvent(full, KindModified)
		}
	}
}
