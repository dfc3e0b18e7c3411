// Package restore copies a snapshot back onto the watched location,
// coordinating with the watch session so the copy-back doesn't get
// snapshotted itself.
package restore

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/fs"
	"github.com/raoulx24/savekeeper/internal/lockprobe"
	"github.com/raoulx24/savekeeper/internal/logging"
	"github.com/raoulx24/savekeeper/internal/snapshot"
)

// ErrLockTimeout reports that the lock-wait budget ran out. It is soft:
// the restore proceeds anyway and the condition is logged as a warning.
var ErrLockTimeout = errors.New("files still locked after lock-wait budget")

// Pauser is the slice of the watch coordinator a restore needs: force
// suppression on, and clear it afterward. The coordinator is borrowed,
// never owned.
type Pauser interface {
	Pause()
	Resume()
}

// Coordinator performs safe restores.
type Coordinator struct {
	fs       fs.FS
	log      logging.Logger
	attempts int
	delay    time.Duration
}

func New(cfg config.RestoreConfig, log logging.Logger, filesystem fs.FS) *Coordinator {
	if filesystem == nil {
		filesystem = fs.New()
	}
	attempts := cfg.LockAttempts
	if attempts <= 0 {
		attempts = 10
	}
	delay := cfg.LockDelay.Std()
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Coordinator{
		fs:       filesystem,
		log:      logging.OrNop(log),
		attempts: attempts,
		delay:    delay,
	}
}

// Restore copies entry back onto the location derived from the watch
// spec. When watch is non-nil the session is paused first and resumed
// afterward — resumption always runs, whether the copy succeeded or
// not, so a failed restore never leaves the session wedged.
func (r *Coordinator) Restore(ctx context.Context, entry snapshot.Entry, src config.SourceConfig, watch Pauser) error {
	if watch != nil {
		watch.Pause()
		defer watch.Resume()
	}

	r.waitUnlocked(ctx, entry.Path)

	info, err := r.fs.Stat(entry.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", snapshot.ErrSourceVanished, entry.Name)
		}
		return fmt.Errorf("stat snapshot: %w", err)
	}

	target := TargetPath(src)

	switch {
	case info.Mode.IsDir():
		// additive merge: snapshot entries are added or overwritten,
		// unrelated pre-existing entries at the target stay
		if err := r.fs.MkdirAll(target); err != nil {
			return fmt.Errorf("creating restore target: %w", err)
		}
		err = r.fs.CopyTree(ctx, entry.Path, target)

	case info.Mode.IsRegular():
		// a pattern like "*.sav" has no literal prefix, so the derived
		// target is the watched directory itself; place the file inside
		// it under its original name
		if st, serr := os.Stat(target); serr == nil && st.IsDir() {
			target = filepath.Join(target, snapshot.OriginalBase(entry.Name))
		}
		if err := r.fs.MkdirAll(filepath.Dir(target)); err != nil {
			return fmt.Errorf("creating restore target dir: %w", err)
		}
		err = r.fs.CopyFile(ctx, entry.Path, target)

	default:
		return fmt.Errorf("%w: %s (%s)", snapshot.ErrUnsupportedEntryType, entry.Name, info.Mode)
	}
	if err != nil {
		return fmt.Errorf("restoring %s: %w", entry.Name, err)
	}

	r.log.Info("restored %s -> %s", entry.Name, target)
	return nil
}

// TargetPath derives the restore destination from the watch spec: the
// watched root joined with the literal prefix of the name pattern.
func TargetPath(src config.SourceConfig) string {
	return filepath.Join(src.Path, literalPrefix(src.Pattern))
}

func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// waitUnlocked polls every file under path until none report locked or
// the attempt budget is exhausted. Exhaustion is reported but never
// blocks the restore.
func (r *Coordinator) waitUnlocked(ctx context.Context, path string) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		locked := lockedFiles(path)
		if len(locked) == 0 {
			return
		}
		if attempt == r.attempts {
			r.log.Warn("%v: %s", ErrLockTimeout, strings.Join(locked, ", "))
			return
		}

		r.log.Debug("waiting for %d locked file(s), attempt %d/%d", len(locked), attempt, r.attempts)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.delay):
		}
	}
}

func lockedFiles(path string) []string {
	var locked []string
	_ = filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() && lockprobe.IsLocked(p) {
			locked = append(locked, p)
		}
		return nil
	})
	return locked
}
