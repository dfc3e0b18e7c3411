// Package retention enumerates, trims, and deletes snapshots under a
// backup root.
package retention

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/logging"
	"github.com/raoulx24/savekeeper/internal/snapshot"
)

// ErrNotFound reports a snapshot name with no backing entry.
var ErrNotFound = errors.New("snapshot not found")

// Catalog is a read-mostly view over the snapshots on disk. Snapshot
// files themselves are owned by the filesystem; the catalog rescans
// rather than caching.
type Catalog struct {
	root  string
	limit int
	log   logging.Logger
}

func NewCatalog(dest config.DestinationConfig, log logging.Logger) *Catalog {
	limit := dest.Retention.Limit
	if limit <= 0 {
		limit = 10
	}
	return &Catalog{
		root:  dest.Root,
		limit: limit,
		log:   logging.OrNop(log),
	}
}

// List returns snapshots newest first, truncated to the configured
// limit. Listing never deletes anything.
func (c *Catalog) List() ([]snapshot.Entry, error) {
	all, err := c.scan()
	if err != nil {
		return nil, err
	}
	if len(all) > c.limit {
		all = all[:c.limit]
	}
	return all, nil
}

// Find resolves a snapshot by its catalog name (the path relative to
// the backup root, date folder included).
func (c *Catalog) Find(name string) (snapshot.Entry, error) {
	all, err := c.scan()
	if err != nil {
		return snapshot.Entry{}, err
	}
	for _, e := range all {
		if e.Name == name {
			return e, nil
		}
	}
	return snapshot.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Delete removes the entry's file or directory tree and its auxiliary
// artifact if present. Deleting an already-missing entry is not an
// error.
func (c *Catalog) Delete(entry snapshot.Entry) error {
	if err := os.RemoveAll(entry.Path); err != nil {
		return fmt.Errorf("deleting %s: %w", entry.Name, err)
	}
	if err := os.Remove(entry.Path + snapshot.ArtifactSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting artifact for %s: %w", entry.Name, err)
	}
	c.log.Info("snapshot deleted: %s", entry.Name)
	return nil
}

// Prune deletes every snapshot beyond the newest limit entries.
func (c *Catalog) Prune() error {
	all, err := c.scan()
	if err != nil {
		return err
	}
	if len(all) <= c.limit {
		return nil
	}
	for _, e := range all[c.limit:] {
		if err := c.Delete(e); err != nil {
			c.log.Error("prune: %v", err)
		}
	}
	return nil
}

// scan walks one level of date-partition folders plus the root itself,
// so roots written with and without date partitioning (or both, after a
// config change) all list correctly. Entries are sorted newest first by
// modification time, name as the tie-break so the order is stable.
func (c *Catalog) scan() ([]snapshot.Entry, error) {
	top, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup root: %w", err)
	}

	var entries []snapshot.Entry
	for _, e := range top {
		if isDatePartition(e) {
			day := e.Name()
			sub, err := os.ReadDir(filepath.Join(c.root, day))
			if err != nil {
				c.log.Warn("reading partition %s: %v", day, err)
				continue
			}
			for _, s := range sub {
				if ent, ok := c.entryFor(day, s, sub); ok {
					entries = append(entries, ent)
				}
			}
			continue
		}
		if ent, ok := c.entryFor("", e, top); ok {
			entries = append(entries, ent)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (c *Catalog) entryFor(day string, e os.DirEntry, siblings []os.DirEntry) (snapshot.Entry, bool) {
	name := e.Name()
	if isArtifact(name, siblings) {
		return snapshot.Entry{}, false
	}

	info, err := e.Info()
	if err != nil {
		return snapshot.Entry{}, false
	}

	rel := name
	if day != "" {
		rel = filepath.Join(day, name)
	}
	path := filepath.Join(c.root, rel)

	entry := snapshot.Entry{
		Name:      rel,
		Path:      path,
		CreatedAt: info.ModTime(),
		Size:      info.Size(),
		IsDir:     e.IsDir(),
	}
	if _, err := os.Stat(path + snapshot.ArtifactSuffix); err == nil {
		entry.Artifact = path + snapshot.ArtifactSuffix
	}
	return entry, true
}

func isDatePartition(e os.DirEntry) bool {
	if !e.IsDir() {
		return false
	}
	_, err := time.Parse(snapshot.DateLayout, e.Name())
	return err == nil
}

// isArtifact reports whether name is a sidecar for a sibling snapshot,
// as opposed to a watched entry that happens to carry the suffix.
func isArtifact(name string, siblings []os.DirEntry) bool {
	if !strings.HasSuffix(name, snapshot.ArtifactSuffix) {
		return false
	}
	base := strings.TrimSuffix(name, snapshot.ArtifactSuffix)
	for _, s := range siblings {
		if s.Name() == base {
			return true
		}
	}
	return false
}
