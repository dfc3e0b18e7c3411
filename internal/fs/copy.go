package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
)

var errSourceChanged = errors.New("source changed during copy")

// File copying with retry and source-change detection. A copy is
// abandoned and retried if the source file changes underneath it, so
// the bytes written always correspond to one observed version.

func copyWithRetry(ctx context.Context, f FS, src, dst string) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	return retry(ctx, "copy", func() error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}

		if sourceChanged(orig, now) {
			return errSourceChanged
		}

		return copyOnce(src, dst)
	})
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

// copyOnce copies one regular file and carries the source modification
// time over to the destination.
func copyOnce(src, dst string) error {
	st, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, st.ModTime(), st.ModTime())
}

// copyTree recursively copies the tree rooted at src into dst, merging
// with whatever already exists there: directories are created as
// needed, colliding files are overwritten, and unrelated entries at the
// destination are left alone. Irregular entries (sockets, devices,
// dangling symlinks) inside the tree are skipped.
func copyTree(ctx context.Context, f FS, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			// entries can vanish mid-walk; the next snapshot picks them up
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return f.MkdirAll(target)
		case d.Type().IsRegular():
			return f.CopyFile(ctx, path, target)
		default:
			return nil
		}
	})
}
