// Package harness runs rebake scenarios against compiled rigs.
//
// A scenario selects an object in a CUE rig, runs the operator at a
// rotation, and checks the archived tracks and the world-space motion they
// produce.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: walk_forward_180
//	description: "What this scenario validates"
//	rig: walk            # CUE rig directory, relative to the base path
//	object: Armature     # optional; defaults to the rig's active object
//	rotation: 180        # optional; defaults to 180
//	run_id: run-1        # optional; defaults to test-run-default
//	expect:
//	  error: ""          # expected error code, empty for success
//	  frame_range: [1, 5]
//	  tracks: [Armature-original, Armature-180]
//	assertions:
//	  - type: world_position
//	    bone: hip
//	    frame: 3
//	    placement: 180
//	    expect: [-2, 0, 1]
//	  - type: world_matches_original
//
// # Assertion Types
//
//   - world_position: world translation of a bone at a frame and placement
//   - local_translation: a bone's local pose translation at a frame
//   - frame_range: an animation's [start, end]
//   - track_order: the object's tracks, in archive order
//   - non_destructive: the source action and skeleton are unchanged
//   - world_matches_original: the rotated animation at theta reproduces
//     the original at placement 0 for every baked frame
//   - round_trip: the archive returns the same motion, and re-baking the
//     archived original reproduces the archived rotation
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID, a single worker unless the
// scenario asks otherwise, and a private in-memory archive. The snapshot is
// canonical JSON of quantised values so it can be compared byte for byte
// with a golden file.
package harness
