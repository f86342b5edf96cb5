package engine

import "fmt"

// DefaultMaxFrames bounds a single bake.
const DefaultMaxFrames = 100000

// FrameQuota bounds the number of frames one rebake may resolve.
//
// The bake length is the original's last frame, not its frame count, so an
// animation keyed at frames 99990..100010 still bakes 100010 frames.
type FrameQuota struct {
	limit int
}

// NewFrameQuota creates a quota with the given limit. Limits below 1 fall
// back to DefaultMaxFrames.
func NewFrameQuota(limit int) FrameQuota {
	if limit < 1 {
		limit = DefaultMaxFrames
	}
	return FrameQuota{limit: limit}
}

// Limit returns the maximum number of frames.
func (q FrameQuota) Limit() int {
	return q.limit
}

// Check returns a FRAME_QUOTA_EXCEEDED error if frames exceeds the limit.
func (q FrameQuota) Check(object string, frames int) error {
	if frames > q.limit {
		return &RebakeError{
			Code:    ErrCodeFrameQuotaExceeded,
			Message: fmt.Sprintf("bake of %d frames exceeds limit of %d", frames, q.limit),
			Object:  object,
		}
	}
	return nil
}
