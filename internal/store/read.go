package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
)

// RunRecord is one archived operator run.
type RunRecord struct {
	ID          string
	Object      string
	Source      string
	SkeletonID  string
	Rotation    float64
	IRVersion   string
	ToolVersion string

	// Tracks appended by the run, in append order.
	Tracks []ir.Track
}

// ReadTracks returns the object's tracks ordered by position.
// Returns an empty slice (not nil) if the object has no tracks.
func (s *Store) ReadTracks(ctx context.Context, object string) ([]ir.Track, error) {
	tracks, err := queryTracks(ctx, s.db, `
		SELECT t.name, t.strip_name, t.strip_start, t.animation_name, a.frame_start, a.frame_end, a.poses
		FROM tracks t
		JOIN animations a ON a.id = t.animation_id
		WHERE t.object = ?
		ORDER BY t.position ASC
	`, object)
	if err != nil {
		return nil, fmt.Errorf("read tracks: %w", err)
	}
	return tracks, nil
}

// ReadSkeleton returns the skeleton with the given content ID.
func (s *Store) ReadSkeleton(ctx context.Context, id string) (*ir.Skeleton, error) {
	var name, bonesJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, bones FROM skeletons WHERE id = ?
	`, id).Scan(&name, &bonesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read skeleton %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read skeleton %s: %w", id, err)
	}
	bones, err := unmarshalBones(bonesJSON)
	if err != nil {
		return nil, fmt.Errorf("read skeleton %s: %w", id, err)
	}
	return &ir.Skeleton{Name: name, Bones: bones}, nil
}

// ReadAnimation returns the motion with the given content ID. The returned
// animation has no name.
func (s *Store) ReadAnimation(ctx context.Context, id string) (*ir.Animation, error) {
	var start, end int
	var posesJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT frame_start, frame_end, poses FROM animations WHERE id = ?
	`, id).Scan(&start, &end, &posesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read animation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read animation %s: %w", id, err)
	}
	poses, err := unmarshalPoses(posesJSON)
	if err != nil {
		return nil, fmt.Errorf("read animation %s: %w", id, err)
	}
	return &ir.Animation{FrameStart: start, FrameEnd: end, Poses: poses}, nil
}

// Objects returns every object with archived tracks, sorted by name.
func (s *Store) Objects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT object FROM tracks ORDER BY object COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	objects := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objects, nil
}

// ObjectSource returns the object that object's first run was rebaked
// from. Empty when object has no runs or they recorded no source.
func (s *Store) ObjectSource(ctx context.Context, object string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `
		SELECT source FROM runs WHERE object = ? ORDER BY seq ASC LIMIT 1
	`, object).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read source of %s: %w", object, err)
	}
	return source, nil
}

// Runs returns archived runs in the order they were recorded, each with
// its tracks. An empty object returns runs for every object.
func (s *Store) Runs(ctx context.Context, object string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object, source, COALESCE(skeleton_id, ''), rotation, ir_version, tool_version
		FROM runs
		WHERE ? = '' OR object = ?
		ORDER BY seq ASC
	`, object, object)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Object, &r.Source, &r.SkeletonID, &r.Rotation, &r.IRVersion, &r.ToolVersion); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Close before the per-run queries: the pool holds a single connection.
	rows.Close()

	for i := range runs {
		tracks, err := queryTracks(ctx, s.db, `
			SELECT t.name, t.strip_name, t.strip_start, t.animation_name, a.frame_start, a.frame_end, a.poses
			FROM tracks t
			JOIN animations a ON a.id = t.animation_id
			WHERE t.run_id = ?
			ORDER BY t.position ASC
		`, runs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("read run %s: %w", runs[i].ID, err)
		}
		runs[i].Tracks = tracks
	}

	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}

func queryTracks(ctx context.Context, q dbtx, query string, args ...any) ([]ir.Track, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []ir.Track{}
	for rows.Next() {
		var (
			t         ir.Track
			anim      ir.Animation
			posesJSON string
		)
		if err := rows.Scan(&t.Name, &t.Strip.Name, &t.Strip.Start, &anim.Name, &anim.FrameStart, &anim.FrameEnd, &posesJSON); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if anim.Poses, err = unmarshalPoses(posesJSON); err != nil {
			return nil, fmt.Errorf("track %q: %w", t.Name, err)
		}
		t.Strip.Animation = &anim
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// readTrackNames returns the object's tracks with names only, for batch
// checks inside a transaction.
func readTrackNames(ctx context.Context, q dbtx, object string) ([]ir.Track, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, strip_name FROM tracks WHERE object = ? ORDER BY position ASC
	`, object)
	if err != nil {
		return nil, fmt.Errorf("query track names: %w", err)
	}
	defer rows.Close()

	var tracks []ir.Track
	for rows.Next() {
		var t ir.Track
		if err := rows.Scan(&t.Name, &t.Strip.Name); err != nil {
			return nil, fmt.Errorf("scan track name: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track names: %w", err)
	}
	return tracks, nil
}
