package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes rebake errors.
type ErrorCode string

const (
	// ErrCodeNotASkeleton indicates the active selection is not a skeleton.
	ErrCodeNotASkeleton ErrorCode = "NOT_A_SKELETON"

	// ErrCodeShapeMismatch indicates the animation's keyed bones do not
	// match the skeleton's bones.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"

	// ErrCodeEmptyRange indicates there is nothing to bake (f1 < 1, an
	// inverted range, or no animation at all).
	ErrCodeEmptyRange ErrorCode = "EMPTY_RANGE"

	// ErrCodeBakeFailed indicates the sampler failed to resolve a frame.
	ErrCodeBakeFailed ErrorCode = "BAKE_FAILED"

	// ErrCodeFrameQuotaExceeded indicates the bake would exceed the frame limit.
	ErrCodeFrameQuotaExceeded ErrorCode = "FRAME_QUOTA_EXCEEDED"

	// ErrCodeInvalidRotation indicates a NaN or infinite rotation.
	ErrCodeInvalidRotation ErrorCode = "INVALID_ROTATION"

	// ErrCodeArchiveFailed indicates the track container rejected the tracks.
	ErrCodeArchiveFailed ErrorCode = "ARCHIVE_FAILED"
)

// NotASkeletonMessage is shown to the user when the selection is rejected.
const NotASkeletonMessage = "The selected object is not a skeleton."

// RebakeError is returned by Rebake and Operator.Run.
//
// The track container is untouched whenever a RebakeError is returned.
type RebakeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Object names the skeleton or scene object involved.
	Object string

	// Frame is the frame being baked, zero when not frame-specific.
	Frame int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RebakeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Object != "" && e.Frame != 0:
		msg += fmt.Sprintf(" (object=%s, frame=%d)", e.Object, e.Frame)
	case e.Object != "":
		msg += fmt.Sprintf(" (object=%s)", e.Object)
	case e.Frame != 0:
		msg += fmt.Sprintf(" (frame=%d)", e.Frame)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RebakeError) Unwrap() error {
	return e.Err
}

// Code returns the ErrorCode of err, or "" if err is not a RebakeError.
// Uses errors.As to handle wrapped errors.
func Code(err error) ErrorCode {
	var re *RebakeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotASkeleton returns true if err is a NOT_A_SKELETON error.
func IsNotASkeleton(err error) bool {
	return Code(err) == ErrCodeNotASkeleton
}

// IsShapeMismatch returns true if err is a SHAPE_MISMATCH error.
func IsShapeMismatch(err error) bool {
	return Code(err) == ErrCodeShapeMismatch
}

// IsEmptyRange returns true if err is an EMPTY_RANGE error.
func IsEmptyRange(err error) bool {
	return Code(err) == ErrCodeEmptyRange
}

// IsBakeFailed returns true if err is a BAKE_FAILED error.
func IsBakeFailed(err error) bool {
	return Code(err) == ErrCodeBakeFailed
}

// IsFrameQuotaExceeded returns true if err is a FRAME_QUOTA_EXCEEDED error.
func IsFrameQuotaExceeded(err error) bool {
	return Code(err) == ErrCodeFrameQuotaExceeded
}

// IsArchiveFailed returns true if err is an ARCHIVE_FAILED error.
func IsArchiveFailed(err error) bool {
	return Code(err) == ErrCodeArchiveFailed
}

func shapeMismatch(object string, frame int, format string, args ...any) *RebakeError {
	return &RebakeError{
		Code:    ErrCodeShapeMismatch,
		Message: fmt.Sprintf(format, args...),
		Object:  object,
		Frame:   frame,
	}
}

func emptyRange(object string, format string, args ...any) *RebakeError {
	return &RebakeError{
		Code:    ErrCodeEmptyRange,
		Message: fmt.Sprintf(format, args...),
		Object:  object,
	}
}

func bakeFailed(object string, frame int, err error) *RebakeError {
	return &RebakeError{
		Code:    ErrCodeBakeFailed,
		Message: "sampler failed to resolve frame",
		Object:  object,
		Frame:   frame,
		Err:     err,
	}
}
