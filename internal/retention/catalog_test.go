package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/snapshot"
)

func newCatalog(root string, limit int) *Catalog {
	dest := config.DestinationConfig{Root: root}
	dest.Retention.Limit = limit
	return NewCatalog(dest, nil)
}

// seedSnapshots writes n snapshot files under a date folder, each one
// minute older than the last. Returns names, newest first.
func seedSnapshots(t *testing.T, root string, n int) []string {
	t.Helper()
	day := time.Now().Format(snapshot.DateLayout)
	require.NoError(t, os.MkdirAll(filepath.Join(root, day), 0o755))

	names := make([]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("game_%02d.sav", i)
		path := filepath.Join(root, day, name)
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
		mtime := time.Now().Add(-time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		names[i] = filepath.Join(day, name)
	}
	return names
}

func TestListNewestFirstTruncated(t *testing.T) {
	root := t.TempDir()
	names := seedSnapshots(t, root, 5)

	c := newCatalog(root, 3)
	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		require.Equal(t, names[i], e.Name)
	}
}

func TestListIsStable(t *testing.T) {
	root := t.TempDir()
	seedSnapshots(t, root, 4)

	c := newCatalog(root, 10)
	first, err := c.List()
	require.NoError(t, err)
	second, err := c.List()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestListSkipsArtifacts(t *testing.T) {
	root := t.TempDir()
	names := seedSnapshots(t, root, 1)
	require.NoError(t, os.WriteFile(
		filepath.Join(root, names[0])+snapshot.ArtifactSuffix, []byte("png"), 0o644))

	c := newCatalog(root, 10)
	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, names[0], entries[0].Name)
	require.NotEmpty(t, entries[0].Artifact)
}

func TestListFlatRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "game_29-08-2026_10-00-00.sav"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "savegames_29-08-2026_10-00-01"), 0o755))

	c := newCatalog(root, 10)
	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestListMissingRoot(t *testing.T) {
	c := newCatalog(filepath.Join(t.TempDir(), "nope"), 10)
	entries, err := c.List()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDeleteRemovesEntryAndArtifact(t *testing.T) {
	root := t.TempDir()
	names := seedSnapshots(t, root, 2)
	artifact := filepath.Join(root, names[0]) + snapshot.ArtifactSuffix
	require.NoError(t, os.WriteFile(artifact, []byte("png"), 0o644))

	c := newCatalog(root, 10)
	entry, err := c.Find(names[0])
	require.NoError(t, err)

	require.NoError(t, c.Delete(entry))

	_, err = os.Stat(entry.Path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(artifact)
	require.True(t, os.IsNotExist(err))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// idempotent
	require.NoError(t, c.Delete(entry))
}

func TestFindNotFound(t *testing.T) {
	c := newCatalog(t.TempDir(), 10)
	_, err := c.Find("29-08-2026/game_10-00-00.sav")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	names := seedSnapshots(t, root, 6)

	c := newCatalog(root, 2)
	require.NoError(t, c.Prune())

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, names[0], entries[0].Name)
	require.Equal(t, names[1], entries[1].Name)

	// pruning again is a no-op
	require.NoError(t, c.Prune())
}
