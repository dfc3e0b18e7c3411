package snapshot

import (
	"path/filepath"
	"strings"
	"time"
)

// Snapshot names embed a timestamp between the source stem and its
// extension: "game_15-04-05.sav" inside a date partition folder,
// "game_02-01-2006_15-04-05.sav" without one.

const (
	// DateLayout names the per-day partition folders.
	DateLayout = "02-01-2006"

	timeLayout = "15-04-05"
	fullLayout = "02-01-2006_15-04-05"

	// ArtifactSuffix is appended to a snapshot path to locate its
	// optional auxiliary sidecar.
	ArtifactSuffix = ".png"
)

func destinationName(sourceBase string, now time.Time, datePartition bool) string {
	ext := filepath.Ext(sourceBase)
	stem := strings.TrimSuffix(sourceBase, ext)

	if datePartition {
		return stem + "_" + now.Format(timeLayout) + ext
	}
	return stem + "_" + now.Format(fullLayout) + ext
}

// OriginalBase strips the embedded timestamp from a snapshot name,
// recovering the basename the source had when it was captured. Names
// without a recognizable timestamp are returned unchanged.
func OriginalBase(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for _, layout := range []string{fullLayout, timeLayout} {
		n := len(layout)
		if len(stem) <= n || stem[len(stem)-n-1] != '_' {
			continue
		}
		if _, err := time.Parse(layout, stem[len(stem)-n:]); err == nil {
			return stem[:len(stem)-n-1] + ext
		}
	}
	return base
}
