package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Load stages reported by LoadError.
const (
	StageScan  = "scan"
	StageLoad  = "load"
	StageBuild = "build"
)

// LoadError is a failure to turn a rig directory into a CUE value.
type LoadError struct {
	Stage string
	Dir   string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadDir loads the CUE package in dir and builds it.
func LoadDir(dir string) (cue.Value, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, &LoadError{Stage: StageScan, Dir: dir, Err: err}
	}
	if len(files) == 0 {
		return cue.Value{}, &LoadError{Stage: StageScan, Dir: dir, Err: fmt.Errorf("no CUE files found")}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Stage: StageLoad, Dir: dir, Err: fmt.Errorf("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Stage: StageLoad, Dir: dir, Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Stage: StageBuild, Dir: dir, Err: formatCUEError(err)}
	}
	return value, nil
}

// LoadRig loads dir and compiles it. Any compile error fails the load;
// use LoadDir and CompileRig to collect every error.
func LoadRig(dir string) (*Rig, error) {
	v, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	rig, errs := CompileRig(v)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return rig, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
