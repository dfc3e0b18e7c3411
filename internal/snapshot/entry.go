package snapshot

import "time"

// Entry represents one stored snapshot under the backup root.
type Entry struct {
	Name       string    // identity: path relative to the backup root
	Path       string    // absolute location of the snapshot
	SourcePath string    // watched entry it was taken from, when known
	CreatedAt  time.Time
	Size       int64
	IsDir      bool
	Artifact   string // auxiliary sidecar path, empty when none exists
}
