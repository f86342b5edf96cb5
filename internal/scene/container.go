package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/rotbake/internal/ir"
)

// ErrDuplicateTrack is returned when a track or strip name is already used
// in the container.
var ErrDuplicateTrack = errors.New("duplicate track")

// TrackContainer is an object's append-only animation archive.
type TrackContainer interface {
	// AppendTracks appends tracks in order. The batch is atomic: if any
	// track is rejected nothing is appended.
	AppendTracks(ctx context.Context, tracks ...ir.Track) error

	// Tracks returns every track in append order.
	Tracks(ctx context.Context) ([]ir.Track, error)
}

// AppendTrack appends a single named strip.
func AppendTrack(ctx context.Context, c TrackContainer, name string, strip ir.Strip) error {
	return c.AppendTracks(ctx, ir.Track{Name: name, Strip: strip})
}

// CheckBatch validates a batch against the names already in a container.
// Track and strip names must be non-empty and unique, within the batch and
// against existing.
func CheckBatch(existing, batch []ir.Track) error {
	names := make(map[string]bool, len(existing)+len(batch))
	strips := make(map[string]bool, len(existing)+len(batch))
	for _, t := range existing {
		names[t.Name] = true
		strips[t.Strip.Name] = true
	}
	for _, t := range batch {
		if t.Name == "" || t.Strip.Name == "" {
			return fmt.Errorf("track %q strip %q: names must not be empty", t.Name, t.Strip.Name)
		}
		if t.Strip.Animation == nil {
			return fmt.Errorf("track %q: strip has no animation", t.Name)
		}
		if names[t.Name] {
			return fmt.Errorf("%w: track name %q", ErrDuplicateTrack, t.Name)
		}
		if strips[t.Strip.Name] {
			return fmt.Errorf("%w: strip name %q", ErrDuplicateTrack, t.Strip.Name)
		}
		names[t.Name] = true
		strips[t.Strip.Name] = true
	}
	return nil
}

// MemoryContainer is an in-memory TrackContainer.
type MemoryContainer struct {
	mu     sync.Mutex
	tracks []ir.Track
}

// NewMemoryContainer returns an empty container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{}
}

// AppendTracks implements TrackContainer.
func (c *MemoryContainer) AppendTracks(ctx context.Context, tracks ...ir.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := CheckBatch(c.tracks, tracks); err != nil {
		return err
	}
	c.tracks = append(c.tracks, tracks...)
	return nil
}

// Tracks implements TrackContainer.
func (c *MemoryContainer) Tracks(ctx context.Context) ([]ir.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.Track, len(c.tracks))
	copy(out, c.tracks)
	return out, nil
}
