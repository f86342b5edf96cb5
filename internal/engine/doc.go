// Package engine implements the orientation rebake.
//
// Rebake takes a skeletal animation and produces a second animation that
// reproduces the same world-space motion on an instance whose placement is
// rotated by a fixed angle about the vertical Z axis. The original animation
// is never written.
//
// PROCEDURE:
//
//  1. Validate the animation against the skeleton (bone sets must match on
//     every frame, the range must end at frame 1 or later).
//  2. Duplicate the skeleton twice: a source instance at placement 0 playing
//     the original, and a scratch target instance at placement θ with no
//     action of its own. Every target bone gets a copy-rotation and a
//     copy-location constraint onto the same-named source bone.
//  3. Resolve the target through the Sampler for every frame 1..f1 and
//     record its local pose. Because the target's placement is rotated but
//     its bones are pinned to the source in world space, the recorded local
//     transforms carry the inverse placement rotation.
//  4. Clear the constraints and release both instances, on every exit path.
//
// The bake always starts at frame 1 regardless of the original's first
// frame; the output range is [1, f1]. Frames before the original's start
// hold its first pose.
//
// Frames are independent, so with WithWorkers(n > 1) they are resolved
// concurrently and reassembled in frame order. The Sampler must be
// reentrant for that; scene.Solver is.
//
// The Operator wraps Rebake with the host workflow: read the active
// selection, rebake its action, and append the original and rotated tracks
// to the object's track container in one atomic batch.
package engine
