package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRunID is used when a scenario does not name one.
const DefaultRunID = "test-run-default"

// DefaultTolerance is the world-space tolerance for assertions that do not
// set one.
const DefaultTolerance = 1e-5

// Scenario defines a rebake test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rig is the CUE rig directory. Relative paths are resolved against
	// the base path when loaded with LoadScenarioWithBasePath.
	Rig string `yaml:"rig"`

	// Object overrides the rig's active selection. Use "-" to run with
	// nothing selected.
	Object string `yaml:"object,omitempty"`

	// Rotation is the placement rotation in degrees. Nil means 180.
	Rotation *float64 `yaml:"rotation,omitempty"`

	// Workers bounds concurrent frame sampling. Zero means 1.
	Workers int `yaml:"workers,omitempty"`

	// MaxFrames overrides the frame quota. Zero keeps the default.
	MaxFrames int `yaml:"max_frames,omitempty"`

	// RunID is a fixed run ID for deterministic snapshots.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Expect checks the run outcome.
	Expect Expect `yaml:"expect"`

	// Assertions check the motion and the archive after the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Expect specifies the expected run outcome.
type Expect struct {
	// Error is the expected error code (e.g. "NOT_A_SKELETON"). Empty
	// expects success.
	Error string `yaml:"error,omitempty"`

	// FrameRange is the expected [start, end] of the rotated animation.
	FrameRange []int `yaml:"frame_range,omitempty"`

	// Tracks are the expected track names after the run, in order.
	Tracks []string `yaml:"tracks,omitempty"`
}

// Assertion validates motion or archive state.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// Animation selects "rotated" (default) or "original".
	Animation string `yaml:"animation,omitempty"`

	// Bone is the bone name (world_position, local_translation).
	Bone string `yaml:"bone,omitempty"`

	// Frame is the frame to evaluate (world_position, local_translation).
	Frame int `yaml:"frame,omitempty"`

	// Placement is the instance rotation for world_position. Defaults to
	// the scenario rotation for the rotated animation and 0 for the
	// original.
	Placement *float64 `yaml:"placement,omitempty"`

	// Theta is the placement the rotated animation is played at for
	// world_matches_original. Defaults to the scenario rotation.
	Theta *float64 `yaml:"theta,omitempty"`

	// Expect is the expected vector or frame range.
	Expect []float64 `yaml:"expect,omitempty"`

	// Tracks is the expected track order (track_order).
	Tracks []string `yaml:"tracks,omitempty"`

	// Tolerance is the absolute tolerance. Zero means DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertWorldPosition        = "world_position"
	AssertLocalTranslation     = "local_translation"
	AssertFrameRange           = "frame_range"
	AssertTrackOrder           = "track_order"
	AssertNonDestructive       = "non_destructive"
	AssertWorldMatchesOriginal = "world_matches_original"
	AssertRoundTrip            = "round_trip"
)

// Animation selectors.
const (
	AnimationRotated  = "rotated"
	AnimationOriginal = "original"
)

// NoSelection as Scenario.Object clears the selection.
const NoSelection = "-"

// LoadScenario reads and parses a scenario YAML file. The rig path is
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the rig path relative to basePath.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(scenario.Rig) && basePath != "" {
		scenario.Rig = filepath.Join(basePath, scenario.Rig)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// rotation returns the scenario rotation, defaulting to 180.
func (s *Scenario) rotation() float64 {
	if s.Rotation == nil {
		return 180
	}
	return *s.Rotation
}

func (s *Scenario) runID() string {
	if s.RunID == "" {
		return DefaultRunID
	}
	return s.RunID
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Rig == "" {
		return fmt.Errorf("rig is required")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if s.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative")
	}
	if fr := s.Expect.FrameRange; fr != nil && len(fr) != 2 {
		return fmt.Errorf("expect.frame_range must be [start, end]")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	switch a.Animation {
	case "", AnimationRotated, AnimationOriginal:
	default:
		return fmt.Errorf("assertions[%d]: animation must be %q or %q", index, AnimationRotated, AnimationOriginal)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertWorldPosition, AssertLocalTranslation:
		if a.Bone == "" {
			return fmt.Errorf("assertions[%d]: bone is required for %s", index, a.Type)
		}
		if len(a.Expect) != 3 {
			return fmt.Errorf("assertions[%d]: expect must be [x, y, z] for %s", index, a.Type)
		}
	case AssertFrameRange:
		if len(a.Expect) != 2 {
			return fmt.Errorf("assertions[%d]: expect must be [start, end] for frame_range", index)
		}
	case AssertTrackOrder:
		if a.Tracks == nil {
			return fmt.Errorf("assertions[%d]: tracks list is required for track_order", index)
		}
	case AssertNonDestructive, AssertWorldMatchesOriginal, AssertRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
