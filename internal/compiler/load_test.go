package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRig(t *testing.T) {
	rig, err := LoadRig("testdata/rig")
	require.NoError(t, err)

	assert.Equal(t, "Armature", rig.Active)
	arm, ok := rig.Object("Armature")
	require.True(t, ok)
	require.NotNil(t, arm.Action)
	assert.Equal(t, 3, arm.Action.Frames())
}

func TestLoadDirNoCUEFiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, StageScan, lerr.Stage)
	assert.Contains(t, err.Error(), "no CUE files found")
}

func TestLoadDirSyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte("package rig\nobject: {\n"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, []string{StageLoad, StageBuild}, lerr.Stage)
}

func TestFindCUEFiles(t *testing.T) {
	files, err := FindCUEFiles("testdata/rig")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("testdata/rig", "rig.cue")}, files)
}
