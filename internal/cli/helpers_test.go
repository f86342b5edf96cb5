package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

const (
	rigDir       = "testdata/rig"
	invalidDir   = "testdata/invalid"
	brokenDir    = "testdata/broken"
	harnessRigs  = "../harness/testdata/rigs"
	harnessScens = "../harness/testdata/scenarios"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "rotbake.db")
}
