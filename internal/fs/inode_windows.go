//go:build windows

package fs

import "os"

// Windows doesn't expose POSIX inodes in the same way. Change detection
// falls back to size and mtime there.

func inodeOf(info os.FileInfo) uint64 {
	_ = info
	return 0
}
