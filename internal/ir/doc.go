// Package ir provides the canonical data model for rotbake.
//
// This package contains type definitions and their serialization only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Bone names are the stable identity of a bone across skeleton copies
//   - A Pose holds local transforms relative to each bone's rest transform
//   - Animation frames are dense: one Pose per integer frame in [FrameStart, FrameEnd]
//   - Floats never reach canonical JSON; they are quantised to int64 micro-units first
//   - All JSON tags use snake_case
package ir
