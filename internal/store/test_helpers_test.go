package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/testutil"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTrack creates a track holding a swirl over [start, end].
func createTestTrack(name, strip string, start, end int) ir.Track {
	anim := testutil.Swirl(testutil.TwoBoneSkeleton(), name+"Action", start, end)
	return ir.Track{Name: name, Strip: ir.Strip{Name: strip, Start: start, Animation: anim}}
}
