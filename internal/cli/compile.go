package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rotbake/internal/compiler"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the IR of a compiled rig.
type CompilationResult struct {
	Active    string           `json:"active,omitempty"`
	Objects   []CompiledObject `json:"objects"`
	IRVersion string           `json:"ir_version"`
}

// CompiledObject is one object of a compiled rig with the content IDs of
// its skeleton and action.
type CompiledObject struct {
	Name       string        `json:"name"`
	Kind       scene.Kind    `json:"kind"`
	SkeletonID string        `json:"skeleton_id,omitempty"`
	ActionID   string        `json:"action_id,omitempty"`
	Skeleton   *ir.Skeleton  `json:"skeleton,omitempty"`
	Action     *ir.Animation `json:"action,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rig-dir>",
		Short: "Compile a CUE rig to IR",
		Long: `Compile a CUE rig document to IR.

Sparse action keys are densified into one pose per frame. The IR carries
the content ID of every skeleton and action, the same IDs the archive
records.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, rigDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadRig(rigDir, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadFailure(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rigDir)

	if len(loadErrors) > 0 {
		return outputLoadErrors(formatter, "Compilation", loadErrors, ExitCommandError)
	}

	result, err := buildCompilationResult(loadResult.Rig)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	for _, obj := range result.Objects {
		formatter.VerboseLog("Compiled object: %s (%s)", obj.Name, obj.Kind)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d object(s)\n\n", len(result.Objects))
	for _, obj := range result.Objects {
		switch {
		case obj.Action != nil:
			fmt.Fprintf(formatter.Writer, "  %s: %d bone(s), action %s frames %d..%d\n",
				obj.Name, len(obj.Skeleton.Bones), obj.Action.Name, obj.Action.FrameStart, obj.Action.FrameEnd)
		case obj.Skeleton != nil:
			fmt.Fprintf(formatter.Writer, "  %s: %d bone(s), no action\n", obj.Name, len(obj.Skeleton.Bones))
		default:
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", obj.Name, obj.Kind)
		}
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote IR to %s\n", opts.Output)
	}
	return nil
}

func buildCompilationResult(rig *compiler.Rig) (*CompilationResult, error) {
	result := &CompilationResult{
		Active:    rig.Active,
		Objects:   make([]CompiledObject, 0, len(rig.Objects)),
		IRVersion: ir.IRVersion,
	}
	for _, obj := range rig.Objects {
		co := CompiledObject{Name: obj.Name, Kind: obj.Kind, Skeleton: obj.Skeleton, Action: obj.Action}
		var err error
		if obj.Skeleton != nil {
			if co.SkeletonID, err = ir.SkeletonID(obj.Skeleton); err != nil {
				return nil, fmt.Errorf("object %s: %w", obj.Name, err)
			}
		}
		if obj.Action != nil {
			if co.ActionID, err = ir.AnimationID(obj.Action); err != nil {
				return nil, fmt.Errorf("object %s: %w", obj.Name, err)
			}
		}
		result.Objects = append(result.Objects, co)
	}
	return result, nil
}

// writeIRToFile writes the compilation result as indented JSON. Canonical
// JSON is only used for hashing.
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// outputLoadFailure reports a rig directory that could not be loaded.
func outputLoadFailure(formatter *OutputFormatter, err error) error {
	code, message := parseLoadError(err)
	return formatter.fail(ExitCommandError, code, message, nil)
}

// outputLoadErrors reports rig compile or validation errors.
func outputLoadErrors(formatter *OutputFormatter, what string, errs []error, exitCode int) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return reportedExitError(exitCode, fmt.Sprintf("%s failed with %d error(s)", strings.ToLower(what), len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "✗ %s failed\n\n", what)
	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return reportedExitError(exitCode, fmt.Sprintf("%s failed with %d error(s)", strings.ToLower(what), len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
