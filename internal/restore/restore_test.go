package restore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/savekeeper/internal/config"
	"github.com/raoulx24/savekeeper/internal/retention"
	"github.com/raoulx24/savekeeper/internal/snapshot"
	"github.com/raoulx24/savekeeper/internal/stability"
)

func fastRestore() *Coordinator {
	cfg := config.RestoreConfig{LockAttempts: 2}
	cfg.LockDelay = config.Duration(5 * time.Millisecond)
	return New(cfg, nil, nil)
}

func takeSnapshot(t *testing.T, sourcePath, backupRoot string) snapshot.Entry {
	t.Helper()
	dest := config.DestinationConfig{Root: backupRoot}
	detector := stability.Detector{Interval: 5 * time.Millisecond, Samples: 1}
	w := snapshot.NewWriter(dest, detector, nil, nil)

	entry, err := w.Write(context.Background(), sourcePath)
	require.NoError(t, err)
	return entry
}

func TestLiteralPrefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"*.sav", ""},
		{"game.sav", "game.sav"},
		{"game*", "game"},
		{"save?.dat", "save"},
		{"slot[0-9].sav", "slot"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, literalPrefix(tt.pattern), "pattern %q", tt.pattern)
	}
}

func TestTargetPath(t *testing.T) {
	src := config.SourceConfig{Path: "/saves", Pattern: "game.sav"}
	require.Equal(t, filepath.Join("/saves", "game.sav"), TargetPath(src))

	src.Pattern = "*.sav"
	require.Equal(t, "/saves", TargetPath(src))
}

func TestRestoreFileRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	original := filepath.Join(srcDir, "game.sav")
	content := []byte("the good save")
	require.NoError(t, os.WriteFile(original, content, 0o644))

	entry := takeSnapshot(t, original, t.TempDir())

	// corrupt the original, then restore over it
	require.NoError(t, os.WriteFile(original, []byte("corrupted"), 0o644))

	src := config.SourceConfig{Path: srcDir, Pattern: "game.sav"}
	require.NoError(t, fastRestore().Restore(context.Background(), entry, src, nil))

	got, err := os.ReadFile(original)
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.Len(t, got, len(content))
}

func TestRestoreFileIntoWildcardTarget(t *testing.T) {
	srcDir := t.TempDir()
	original := filepath.Join(srcDir, "game.sav")
	require.NoError(t, os.WriteFile(original, []byte("v1"), 0o644))

	entry := takeSnapshot(t, original, t.TempDir())
	require.NoError(t, os.Remove(original))

	// "*.sav" has no literal prefix: the file goes back into the
	// watched directory under its original basename
	src := config.SourceConfig{Path: srcDir, Pattern: "*.sav"}
	require.NoError(t, fastRestore().Restore(context.Background(), entry, src, nil))

	got, err := os.ReadFile(original)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
}

func TestRestoreDirectoryMergesAdditively(t *testing.T) {
	srcDir := t.TempDir()
	watched := filepath.Join(srcDir, "savegames")
	require.NoError(t, os.MkdirAll(watched, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(watched, "slot1.sav"), []byte("snapshotted"), 0o644))

	entry := takeSnapshot(t, watched, t.TempDir())

	// destination gains an unrelated file and a modified slot
	require.NoError(t, os.WriteFile(filepath.Join(watched, "keep.txt"), []byte("mine"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(watched, "slot1.sav"), []byte("newer"), 0o644))

	src := config.SourceConfig{Path: srcDir, Pattern: "savegames"}
	require.NoError(t, fastRestore().Restore(context.Background(), entry, src, nil))

	keep, err := os.ReadFile(filepath.Join(watched, "keep.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("mine"), keep, "unrelated entries stay")

	slot, err := os.ReadFile(filepath.Join(watched, "slot1.sav"))
	require.NoError(t, err)
	require.Equal(t, []byte("snapshotted"), slot, "snapshot entries overwrite")
}

func TestRestoreVanishedSnapshot(t *testing.T) {
	entry := snapshot.Entry{
		Name: "game_10-00-00.sav",
		Path: filepath.Join(t.TempDir(), "gone"),
	}
	src := config.SourceConfig{Path: t.TempDir(), Pattern: "game.sav"}

	err := fastRestore().Restore(context.Background(), entry, src, nil)
	require.ErrorIs(t, err, snapshot.ErrSourceVanished)
}

type fakePauser struct {
	paused  int
	resumed int
}

func (p *fakePauser) Pause()  { p.paused++ }
func (p *fakePauser) Resume() { p.resumed++ }

func TestRestoreAlwaysResumes(t *testing.T) {
	pauser := &fakePauser{}
	entry := snapshot.Entry{Name: "gone", Path: filepath.Join(t.TempDir(), "gone")}
	src := config.SourceConfig{Path: t.TempDir(), Pattern: "game.sav"}

	err := fastRestore().Restore(context.Background(), entry, src, pauser)
	require.Error(t, err)
	require.Equal(t, 1, pauser.paused)
	require.Equal(t, 1, pauser.resumed, "resume runs even when the copy failed")
}

func TestRestoreRoundTripThroughCatalog(t *testing.T) {
	srcDir := t.TempDir()
	backupRoot := t.TempDir()
	original := filepath.Join(srcDir, "game.sav")
	require.NoError(t, os.WriteFile(original, []byte("catalogued"), 0o644))

	written := takeSnapshot(t, original, backupRoot)

	dest := config.DestinationConfig{Root: backupRoot}
	catalog := retention.NewCatalog(dest, nil)
	entry, err := catalog.Find(written.Name)
	require.NoError(t, err)

	require.NoError(t, os.Remove(original))
	src := config.SourceConfig{Path: srcDir, Pattern: "*.sav"}
	require.NoError(t, fastRestore().Restore(context.Background(), entry, src, nil))

	got, err := os.ReadFile(original)
	require.NoError(t, err)
	require.Equal(t, []byte("catalogued"), got)
}
