// Package stability decides when a filesystem entry has stopped
// changing, by sampling a size metric until it holds still.
package stability

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"
)

// Detector samples the size of an entry every Interval and reports
// stability once the size has been unchanged for Samples consecutive
// samples. There is deliberately no upper bound on the wait: a large
// save legitimately takes longer to settle. Callers that need a bound
// wrap the context.
type Detector struct {
	Interval time.Duration
	Samples  int
}

// WaitUntilStable blocks until path has been observed unchanged for the
// configured number of consecutive samples, path no longer exists, or
// ctx is cancelled. A vanished path counts as stable; the caller must
// re-check existence before acting on it.
func (d Detector) WaitUntilStable(ctx context.Context, path string) error {
	interval := d.Interval
	if interval <= 0 {
		interval = time.Second
	}
	required := d.Samples
	if required <= 0 {
		required = 2
	}

	last, exists := sizeOf(path)
	if !exists {
		return nil
	}

	unchanged := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		size, exists := sizeOf(path)
		if !exists {
			return nil
		}

		if size == last {
			unchanged++
			if unchanged >= required {
				return nil
			}
			continue
		}

		last = size
		unchanged = 0
	}
}

// sizeOf returns the metric for path: byte length for a regular file,
// the recursive sum of file lengths for a directory. The second return
// is false when the entry does not exist.
func sizeOf(path string) (int64, bool) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	if !st.IsDir() {
		return st.Size(), true
	}

	var total int64
	_ = filepath.WalkDir(path, func(_ string, d iofs.DirEntry, err error) error {
		if err != nil {
			// entries vanishing mid-walk just don't count this sample
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total, true
}
