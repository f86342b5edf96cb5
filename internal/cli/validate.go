package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool       `json:"valid"`
	Objects int        `json:"objects"`
	Errors  []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rig-dir>",
		Short: "Validate a rig without writing IR",
		Long: `Validate a CUE rig document.

Checks CUE syntax, object and action structure, and every skeleton's bone
hierarchy (unique names, known parents, no parent cycles, at least one
root). All errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rigDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadRig(rigDir, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadFailure(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rigDir)

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, loadResult, loadErrors)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Objects: len(loadResult.Rig.Objects)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Rig valid (%d object(s))\n", len(loadResult.Rig.Objects))
	return nil
}

// outputValidationErrors reports every error. Validation failures exit 1.
func outputValidationErrors(formatter *OutputFormatter, loadResult *LoadResult, errs []error) error {
	if !formatter.JSON() {
		return outputLoadErrors(formatter, "Validation", errs, ExitFailure)
	}

	result := ValidationResult{Objects: len(loadResult.Rig.Objects)}
	for _, err := range errs {
		code, message := parseLoadError(err)
		result.Errors = append(result.Errors, CLIError{Code: code, Message: message})
	}
	if err := formatter.Encode(CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &result.Errors[0],
	}); err != nil {
		return err
	}
	return reportedExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
