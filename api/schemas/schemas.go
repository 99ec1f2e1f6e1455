// File: api/schemas/schemas.go
// Description: Core data types shared across the workflow, executor and
// reporting packages. These are plain data carriers; behavior lives in the
// internal packages that own them.
package schemas

import (
	"time"
)

// ActionType enumerates the atomic units of work a handler can implement.
type ActionType string

const (
	ActionWait              ActionType = "wait"
	ActionLaunchApplication ActionType = "launch_application"
	ActionFocusWindow       ActionType = "focus_window"
	ActionMaximizeWindow    ActionType = "maximize_window"
	ActionClickTemplate     ActionType = "click_template"
	ActionTypeText          ActionType = "type_text"
	ActionVerifyText        ActionType = "verify_text"
)

// Parameters is the key/value bag attached to objectives and instructions.
type Parameters map[string]interface{}

// Clone returns a shallow copy so instruction expansion never mutates the
// objective it was derived from.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the string value for key, or the fallback when the key is
// absent or holds a non-string.
func (p Parameters) String(key, fallback string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Float returns the numeric value for key. JSON decoding produces float64
// for all numbers, so that is the only numeric shape checked.
func (p Parameters) Float(key string, fallback float64) float64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// Objective is one declarative unit of work from a workflow definition.
// It is immutable during execution; the engine owns its outcome.
type Objective struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        ActionType `json:"type"`
	Parameters  Parameters `json:"parameters,omitempty"`
}

// WorkflowDefinition is the on-disk JSON document describing a run.
// Unknown top-level fields are ignored for forward compatibility.
type WorkflowDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Version     string      `json:"version,omitempty"`
	Objectives  []Objective `json:"objectives"`
}

// Instruction is one concrete action invocation with resolved parameters.
// Instructions are ephemeral; they exist only while their parent objective
// is being planned and executed.
type Instruction struct {
	ActionType  ActionType `json:"action_type"`
	Description string     `json:"description,omitempty"`
	Parameters  Parameters `json:"parameters,omitempty"`
}

// OutcomeStatus is the terminal state of an objective. Transitions are
// monotonic: pending moves to exactly one of the other states and never
// reverts.
type OutcomeStatus string

const (
	OutcomePending OutcomeStatus = "pending"
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// AttemptOutcome records a single perform/verify/recover cycle inside the
// executor. The log is append-only and surfaced in the final report for
// post-hoc diagnosis.
type AttemptOutcome struct {
	ActionType ActionType `json:"action_type"`
	Attempt    int        `json:"attempt"`
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ObjectiveResult is the per-objective entry in the final report.
type ObjectiveResult struct {
	ObjectiveID string           `json:"objective_id"`
	Name        string           `json:"name"`
	Type        ActionType       `json:"type"`
	Status      OutcomeStatus    `json:"status"`
	Message     string           `json:"message,omitempty"`
	Attempts    []AttemptOutcome `json:"attempts,omitempty"`
}

// WorkflowReport aggregates the outcome of one workflow run. It is built
// incrementally by the engine and read-only once returned.
type WorkflowReport struct {
	RunID      string            `json:"run_id"`
	Workflow   string            `json:"workflow"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Objectives []ObjectiveResult `json:"objectives"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	// Success is true only when no supported objective failed. Skipped
	// objectives do not count against it.
	Success bool `json:"success"`
}

// VerifyOutcome is the tagged result of a post-condition check. Detail
// carries optional structured data from verifiers that extract state from
// the screen (for example recognized text).
type VerifyOutcome struct {
	OK      bool                   `json:"ok"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
}

// Verified builds a successful outcome.
func Verified(message string) VerifyOutcome {
	return VerifyOutcome{OK: true, Message: message}
}

// VerifiedWithDetail builds a successful outcome carrying structured data.
func VerifiedWithDetail(message string, detail map[string]interface{}) VerifyOutcome {
	return VerifyOutcome{OK: true, Message: message, Detail: detail}
}

// Unverified builds a failed outcome.
func Unverified(message string) VerifyOutcome {
	return VerifyOutcome{OK: false, Message: message}
}
