package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
)

// Run identifies the operator run whose tracks a Container archives.
type Run struct {
	ID string

	// Source names the object the run rebaked; the container's object
	// is the output that archives it.
	Source   string
	Skeleton *ir.Skeleton
	Rotation float64
}

// Container is a scene.TrackContainer persisted in the store. All tracks
// appended through one Container are recorded under the same run.
type Container struct {
	s      *Store
	object string
	run    Run
}

var _ scene.TrackContainer = (*Container)(nil)

// Container returns the persistent track container for object.
func (s *Store) Container(object string, run Run) *Container {
	return &Container{s: s, object: object, run: run}
}

// AppendTracks appends tracks after the object's existing tracks in one
// transaction. Name checks follow scene.CheckBatch; a rejected batch writes
// nothing.
func (c *Container) AppendTracks(ctx context.Context, tracks ...ir.Track) error {
	if c.run.ID == "" {
		return fmt.Errorf("append tracks: run ID is required")
	}

	tx, err := c.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append tracks: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := readTrackNames(ctx, tx, c.object)
	if err != nil {
		return fmt.Errorf("append tracks: %w", err)
	}
	if err := scene.CheckBatch(existing, tracks); err != nil {
		return fmt.Errorf("append tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil
	}

	if err := writeRun(ctx, tx, c.object, c.run); err != nil {
		return fmt.Errorf("append tracks: %w", err)
	}

	position := len(existing)
	for _, t := range tracks {
		animID, err := writeAnimation(ctx, tx, t.Strip.Animation)
		if err != nil {
			return fmt.Errorf("append tracks: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tracks
			(object, position, name, strip_name, strip_start, animation_id, animation_name, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			c.object,
			position,
			t.Name,
			t.Strip.Name,
			t.Strip.Start,
			animID,
			t.Strip.Animation.Name,
			c.run.ID,
		)
		if err != nil {
			return fmt.Errorf("append tracks: insert %q: %w", t.Name, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append tracks: commit: %w", err)
	}
	return nil
}

// Tracks returns the object's tracks in append order.
func (c *Container) Tracks(ctx context.Context) ([]ir.Track, error) {
	return c.s.ReadTracks(ctx, c.object)
}

// WriteSkeleton stores a skeleton snapshot and returns its content ID.
// Writing the same skeleton twice is a no-op.
func (s *Store) WriteSkeleton(ctx context.Context, skel *ir.Skeleton) (string, error) {
	id, err := writeSkeleton(ctx, s.db, skel)
	if err != nil {
		return "", fmt.Errorf("write skeleton: %w", err)
	}
	return id, nil
}

// WriteAnimation stores an animation's motion and returns its content ID.
// The animation name is not part of the record; tracks carry it.
func (s *Store) WriteAnimation(ctx context.Context, anim *ir.Animation) (string, error) {
	id, err := writeAnimation(ctx, s.db, anim)
	if err != nil {
		return "", fmt.Errorf("write animation: %w", err)
	}
	return id, nil
}

func writeSkeleton(ctx context.Context, q dbtx, skel *ir.Skeleton) (string, error) {
	id, err := ir.SkeletonID(skel)
	if err != nil {
		return "", err
	}
	bones, err := marshalBones(skel.Bones)
	if err != nil {
		return "", err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO skeletons (id, name, bones)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, skel.Name, bones)
	if err != nil {
		return "", fmt.Errorf("insert skeleton: %w", err)
	}
	return id, nil
}

func writeAnimation(ctx context.Context, q dbtx, anim *ir.Animation) (string, error) {
	id, err := ir.AnimationID(anim)
	if err != nil {
		return "", err
	}
	poses, err := marshalPoses(anim.Poses)
	if err != nil {
		return "", err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO animations (id, frame_start, frame_end, poses)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, anim.FrameStart, anim.FrameEnd, poses)
	if err != nil {
		return "", fmt.Errorf("insert animation: %w", err)
	}
	return id, nil
}

// writeRun records the run once; later batches of the same run reuse it.
func writeRun(ctx context.Context, q dbtx, object string, run Run) error {
	var skelID sql.NullString
	if run.Skeleton != nil {
		id, err := writeSkeleton(ctx, q, run.Skeleton)
		if err != nil {
			return err
		}
		skelID = sql.NullString{String: id, Valid: true}
	}

	var owner string
	err := q.QueryRowContext(ctx, `SELECT object FROM runs WHERE id = ?`, run.ID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query run: %w", err)
	case owner != object:
		return fmt.Errorf("run %q already archives object %q", run.ID, owner)
	default:
		return nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO runs (id, object, source, skeleton_id, rotation, ir_version, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, object, run.Source, skelID, run.Rotation, ir.IRVersion, ir.ToolVersion)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}
