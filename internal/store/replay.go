package store

import (
	"context"
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
)

// RunState is an archived run prepared for replay.
type RunState struct {
	Run      RunRecord
	Skeleton *ir.Skeleton

	// Original and Rotated are the run's first and second tracks.
	Original *ir.Track
	Rotated  *ir.Track

	// Complete is true when the run archived exactly an original and a
	// rotated track and its skeleton snapshot is present.
	Complete bool
}

// RunStates loads every run for object (all objects when empty) with its
// skeleton snapshot, in the order the runs were recorded.
func (s *Store) RunStates(ctx context.Context, object string) ([]RunState, error) {
	runs, err := s.Runs(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("run states: %w", err)
	}

	states := make([]RunState, 0, len(runs))
	skeletons := make(map[string]*ir.Skeleton)
	for _, run := range runs {
		state := RunState{Run: run}

		if run.SkeletonID != "" {
			skel, ok := skeletons[run.SkeletonID]
			if !ok {
				skel, err = s.ReadSkeleton(ctx, run.SkeletonID)
				if err != nil {
					return nil, fmt.Errorf("run states: %w", err)
				}
				skeletons[run.SkeletonID] = skel
			}
			state.Skeleton = skel
		}

		if len(run.Tracks) > 0 {
			state.Original = &run.Tracks[0]
		}
		if len(run.Tracks) > 1 {
			state.Rotated = &run.Tracks[1]
		}
		state.Complete = len(run.Tracks) == 2 && state.Skeleton != nil

		states = append(states, state)
	}
	return states, nil
}
