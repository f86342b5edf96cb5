package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/rotbake/internal/compiler"
)

// LoadMode controls how errors are handled during rig loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains a compiled rig and the number of CUE files it came
// from.
type LoadResult struct {
	Rig       *compiler.Rig
	FileCount int
}

// LoadError represents an error that occurred during rig loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRig loads and compiles the CUE rig in dir.
//
// A nil result means the directory could not be turned into a CUE value at
// all. Otherwise the result holds every object that compiled; in
// LoadModeFailFast only the first compile error is returned.
func LoadRig(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rig directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rig directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}

	value, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, []error{convertLoadError(err)}
	}

	rig, compileErrs := compiler.CompileRig(value)
	if rig == nil {
		return nil, convertCompileError(compileErrs[0])
	}
	result := &LoadResult{Rig: rig, FileCount: len(files)}

	var errs []error
	for _, cerr := range compileErrs {
		errs = append(errs, convertCompileError(cerr)...)
		if mode == LoadModeFailFast {
			return result, errs[:1]
		}
	}
	return result, errs
}

// convertLoadError maps a compiler load stage to an error code.
func convertLoadError(err error) *LoadError {
	var loadErr *compiler.LoadError
	if !errors.As(err, &loadErr) {
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	switch loadErr.Stage {
	case compiler.StageScan:
		if strings.HasPrefix(loadErr.Err.Error(), "no CUE files") {
			return &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", loadErr.Dir)}
		}
		return &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", loadErr.Err)}
	case compiler.StageLoad:
		return &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", loadErr.Err)}
	default:
		le := &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", loadErr.Err)}
		var cerr *compiler.CompileError
		if errors.As(loadErr.Err, &cerr) {
			le.Pos = cerr.Pos
		}
		return le
	}
}

// convertCompileError converts a compiler error into one LoadError per
// problem, keeping position info.
func convertCompileError(err error) []error {
	object := objectPrefix(err)

	if verrs, ok := compiler.IsValidationError(err); ok {
		out := make([]error, len(verrs))
		for i, v := range verrs {
			out[i] = &LoadError{Code: v.Code, Message: object + v.Field + ": " + v.Message}
		}
		return out
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return []error{&LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: object + compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}}
	}
	return []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
}

// objectPrefix recovers the "object X: " prefix CompileRig adds.
func objectPrefix(err error) string {
	msg := err.Error()
	if !strings.HasPrefix(msg, "object ") {
		return ""
	}
	if i := strings.Index(msg, ": "); i > 0 {
		return msg[:i+2]
	}
	return ""
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Archive open or read error

	// Rig errors
	ErrCodeObject   = "E101" // Object missing or unnamed
	ErrCodeActive   = "E102" // Active object not defined
	ErrCodeSkeleton = "E103" // Malformed skeleton
	ErrCodeAction   = "E104" // Malformed action or keys

	// Skeleton validation errors E201-E206 come from the compiler.
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	root, _, _ := strings.Cut(field, ".")
	if i := strings.IndexByte(root, '['); i >= 0 {
		root = root[:i]
	}
	switch root {
	case "cue":
		return ErrCodeBuildFailed
	case "object":
		return ErrCodeObject
	case "active":
		return ErrCodeActive
	case "skeleton":
		return ErrCodeSkeleton
	case "action":
		return ErrCodeAction
	default:
		return ErrCodeGeneric
	}
}
