package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/rotbake/internal/ir"
)

// ValidateSkeleton checks a skeleton's topology.
// Returns all errors found (does not fail-fast).
func ValidateSkeleton(s *ir.Skeleton) []ValidationError {
	var errs []ValidationError

	// E206: at least one bone
	if len(s.Bones) == 0 {
		return []ValidationError{{
			Field:   "skeleton.bones",
			Message: "skeleton must have at least one bone",
			Code:    ErrNoBones,
		}}
	}

	seen := make(map[string]int, len(s.Bones))
	parents := make(map[string]string, len(s.Bones))
	var order []string
	for i, b := range s.Bones {
		field := fmt.Sprintf("skeleton.bones[%d]", i)

		// E201: name is required
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "bone name is required and must be non-empty",
				Code:    ErrBoneNameEmpty,
			})
			continue
		}

		// E202: names are unique
		if first, dup := seen[b.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate bone name %q (first declared at bones[%d])", b.Name, first),
				Code:    ErrDuplicateBone,
			})
			continue
		}
		seen[b.Name] = i
		parents[b.Name] = b.Parent
		order = append(order, b.Name)
	}

	// E203: parents name declared bones
	roots := 0
	for i, b := range s.Bones {
		if b.Parent == "" {
			roots++
			continue
		}
		if _, ok := seen[b.Parent]; !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("skeleton.bones[%d].parent", i),
				Message: fmt.Sprintf("bone %q has unknown parent %q", b.Name, b.Parent),
				Code:    ErrUnknownParent,
			})
		}
	}

	// E204: parent chains terminate
	for _, cycle := range parentCycles(order, parents) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("skeleton.bones[%d].parent", seen[cycle[0]]),
			Message: formatCycle(cycle),
			Code:    ErrParentCycle,
		})
	}

	// E205: at least one root
	if roots == 0 {
		errs = append(errs, ValidationError{
			Field:   "skeleton.bones",
			Message: "no root bone (every bone has a parent)",
			Code:    ErrNoRootBone,
		})
	}

	return errs
}
