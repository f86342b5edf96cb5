package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/ir"
)

func bones(pairs ...string) *ir.Skeleton {
	s := &ir.Skeleton{Name: "rig"}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Bones = append(s.Bones, ir.Bone{Name: pairs[i], Parent: pairs[i+1], Rest: ir.IdentityTransform()})
	}
	return s
}

func codesOf(errs []ValidationError) []string {
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	return codes
}

func TestValidateSkeletonValid(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "spine", "root", "head", "spine"))
	assert.Empty(t, errs, "valid skeleton should have no errors")
}

func TestValidateSkeletonMultipleRoots(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "prop", ""))
	assert.Empty(t, errs, "a forest of bones is valid")
}

func TestValidateSkeletonNoBones(t *testing.T) {
	errs := ValidateSkeleton(&ir.Skeleton{Name: "empty"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNoBones, errs[0].Code)
}

func TestValidateSkeletonEmptyName(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "  ", "root"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrBoneNameEmpty, errs[0].Code)
	assert.Equal(t, "skeleton.bones[1].name", errs[0].Field)
}

func TestValidateSkeletonDuplicate(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "arm", "root", "arm", "root"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateBone, errs[0].Code)
	assert.Contains(t, errs[0].Message, "first declared at bones[1]")
}

func TestValidateSkeletonUnknownParent(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "arm", "torso"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownParent, errs[0].Code)
	assert.Equal(t, "skeleton.bones[1].parent", errs[0].Field)
	assert.Contains(t, errs[0].Message, `"torso"`)
}

func TestValidateSkeletonCycleWithRoot(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "", "a", "b", "b", "a"))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrParentCycle, errs[0].Code)
	assert.Equal(t, "parent cycle: a → b → a", errs[0].Message)
	assert.Equal(t, "skeleton.bones[1].parent", errs[0].Field)
}

func TestValidateSkeletonSelfParent(t *testing.T) {
	errs := ValidateSkeleton(bones("root", "root"))
	assert.Equal(t, []string{ErrParentCycle, ErrNoRootBone}, codesOf(errs))
	assert.Equal(t, "parent cycle: root → root", errs[0].Message)
}

func TestValidateSkeletonCollectsAll(t *testing.T) {
	errs := ValidateSkeleton(bones("", "", "x", "y", "x", "", "p", "q", "q", "p"))
	assert.Equal(t, []string{
		ErrBoneNameEmpty,
		ErrDuplicateBone,
		ErrUnknownParent,
		ErrParentCycle,
	}, codesOf(errs))
}

func TestValidationErrorsJoin(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first", Code: ErrNoBones},
		{Field: "b", Message: "second", Code: ErrDuplicateBone},
	}
	assert.Equal(t, "[E206] a: first; [E202] b: second", errs.Error())
}
