// Package fs defines the filesystem abstraction used by savekeeper.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	iofs "io/fs"
	"time"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Mode  iofs.FileMode
	Inode uint64
}

type FS interface {
	Stat(path string) (FileInfo, error)
	CopyFile(ctx context.Context, src, dst string) error
	CopyTree(ctx context.Context, src, dst string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
}
