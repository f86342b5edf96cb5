package harness

import (
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID is the run ID the operator archived under.
	RunID string `json:"run_id"`

	// Output names the object holding the run's tracks, empty when the
	// run failed.
	Output string `json:"output,omitempty"`

	// ErrorCode is the rebake error code, empty when the run succeeded.
	ErrorCode string `json:"error_code,omitempty"`

	// Notifications are the messages the operator showed the user.
	Notifications []string `json:"notifications,omitempty"`

	// Tracks are the run's archived tracks, read back from the output
	// object's container. Empty when the run failed.
	Tracks []ir.Track `json:"-"`

	// Snapshot is the canonical JSON used for golden comparison.
	Snapshot []byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Errors:        []string{},
		Notifications: []string{},
		Tracks:        []ir.Track{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AssertionError is a failed scenario assertion.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertions[%d] %s: %s", e.Index, e.Type, e.Message)
}
