// Package snapshot copies watched entries into timestamped snapshots
// under the backup root.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/fs"
	"github.com/raoulx24/savekeeper/internal/logging"
	"github.com/raoulx24/savekeeper/internal/stability"
)

var (
	// ErrSourceVanished reports that the source disappeared between the
	// triggering event and the copy. Not fatal to a watch session.
	ErrSourceVanished = errors.New("snapshot source vanished")

	// ErrUnsupportedEntryType reports a source that is neither a
	// regular file nor a directory.
	ErrUnsupportedEntryType = errors.New("unsupported entry type")
)

// ArtifactFunc optionally produces an auxiliary sidecar (for example a
// captured image) for a finished snapshot. It returns the sidecar path,
// or "" when none is available. Failures never fail the snapshot.
type ArtifactFunc func(destPath string) (string, error)

// Writer copies a file or directory tree to a timestamped destination,
// waiting for the source to stop changing first.
type Writer struct {
	dest     config.DestinationConfig
	fs       fs.FS
	detector stability.Detector
	artifact ArtifactFunc
	log      logging.Logger
}

// NewWriter creates a writer for the destination config. A nil
// filesystem selects the local OS filesystem.
func NewWriter(dest config.DestinationConfig, detector stability.Detector, log logging.Logger, filesystem fs.FS) *Writer {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Writer{
		dest:     dest,
		fs:       filesystem,
		detector: detector,
		log:      logging.OrNop(log),
	}
}

// WithArtifact attaches the auxiliary artifact collaborator.
func (w *Writer) WithArtifact(fn ArtifactFunc) *Writer {
	w.artifact = fn
	return w
}

// Write snapshots sourcePath under the backup root and returns the
// resulting entry. The source is sampled for stability before copying;
// the copy strategy follows an explicit entry-type check.
func (w *Writer) Write(ctx context.Context, sourcePath string) (Entry, error) {
	if err := w.detector.WaitUntilStable(ctx, sourcePath); err != nil {
		return Entry{}, err
	}

	info, err := w.fs.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %s", ErrSourceVanished, sourcePath)
		}
		return Entry{}, fmt.Errorf("stat source: %w", err)
	}

	now := time.Now()
	name := destinationName(filepath.Base(sourcePath), now, w.dest.DatePartition)

	destDir := w.dest.Root
	relName := name
	if w.dest.DatePartition {
		day := now.Format(DateLayout)
		destDir = filepath.Join(destDir, day)
		relName = filepath.Join(day, name)
	}
	if err := w.fs.MkdirAll(destDir); err != nil {
		return Entry{}, fmt.Errorf("creating destination dir: %w", err)
	}
	destPath := filepath.Join(destDir, name)

	switch {
	case info.Mode.IsDir():
		w.log.Debug("copying directory tree %s -> %s", sourcePath, destPath)
		err = w.fs.CopyTree(ctx, sourcePath, destPath)
	case info.Mode.IsRegular():
		w.log.Debug("copying file %s -> %s", sourcePath, destPath)
		err = w.fs.CopyFile(ctx, sourcePath, destPath)
	default:
		return Entry{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedEntryType, sourcePath, info.Mode)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %s", ErrSourceVanished, sourcePath)
		}
		return Entry{}, fmt.Errorf("copying %s: %w", sourcePath, err)
	}

	entry := Entry{
		Name:       relName,
		Path:       destPath,
		SourcePath: sourcePath,
		CreatedAt:  time.Now(),
		Size:       info.Size,
		IsDir:      info.Mode.IsDir(),
	}

	if w.artifact != nil {
		switch sidecar, aerr := w.artifact(destPath); {
		case aerr != nil:
			w.log.Warn("auxiliary artifact for %s: %v", entry.Name, aerr)
		case sidecar != "":
			entry.Artifact = sidecar
		}
	}

	w.log.Info("snapshot created: %s", entry.Name)
	return entry, nil
}
