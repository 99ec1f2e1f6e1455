// File: internal/actions/registry.go
// Description: Static action registry. Action types map to a record of three
// function references (perform/verify/recover) built at startup and checked
// for consistency, replacing any late name-based handler lookup.
package actions

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

// PerformFunc executes the action's effect. A nil error means the action
// was carried out; verification remains the authority on success.
type PerformFunc func(ctx context.Context, params schemas.Parameters) error

// VerifyFunc checks the action's post-condition against live screen state.
type VerifyFunc func(ctx context.Context, params schemas.Parameters) schemas.VerifyOutcome

// RecoverFunc runs recovery actions after a failed attempt. The boolean
// reports whether a retry is worthwhile; it never counts as success itself.
type RecoverFunc func(ctx context.Context, failure string, attempt, maxAttempts int, params schemas.Parameters) (bool, string)

// Registration binds one action type to its handler functions and declared
// capabilities. Verify and Recover may be nil; the flags must agree with
// what is actually present.
type Registration struct {
	Type           schemas.ActionType
	Perform        PerformFunc
	Verify         VerifyFunc
	Recover        RecoverFunc
	HasVerifier    bool
	HasRecovery    bool
	RequiredParams []string
}

// Registry holds the fixed set of supported action types for a build.
type Registry struct {
	entries map[schemas.ActionType]Registration
	log     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[schemas.ActionType]Registration),
		log:     logger.Named("registry"),
	}
}

// Register validates and adds one registration. Capability flags are checked
// against the functions actually supplied so a declared verifier can never
// silently be a nil pointer at execution time.
func (r *Registry) Register(reg Registration) error {
	if reg.Type == "" {
		return fmt.Errorf("registration missing action type")
	}
	if _, exists := r.entries[reg.Type]; exists {
		return fmt.Errorf("action type %q registered twice", reg.Type)
	}
	if reg.Perform == nil {
		return fmt.Errorf("action type %q has no perform function", reg.Type)
	}
	if reg.HasVerifier != (reg.Verify != nil) {
		return fmt.Errorf("action type %q: has_verifier flag does not match presence of verify function", reg.Type)
	}
	if reg.HasRecovery != (reg.Recover != nil) {
		return fmt.Errorf("action type %q: has_recovery flag does not match presence of recover function", reg.Type)
	}

	r.entries[reg.Type] = reg
	r.log.Debug("Action registered",
		zap.String("type", string(reg.Type)),
		zap.Bool("has_verifier", reg.HasVerifier),
		zap.Bool("has_recovery", reg.HasRecovery))
	return nil
}

// Lookup resolves an action type to its registration.
func (r *Registry) Lookup(t schemas.ActionType) (Registration, bool) {
	reg, ok := r.entries[t]
	return reg, ok
}

// Supports reports whether the action type is registered.
func (r *Registry) Supports(t schemas.ActionType) bool {
	_, ok := r.entries[t]
	return ok
}

// Supported returns the sorted list of registered action types.
func (r *Registry) Supported() []schemas.ActionType {
	out := make([]schemas.ActionType, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MissingParams returns the required parameter names absent or empty in
// params for the given action type.
func (r *Registry) MissingParams(t schemas.ActionType, params schemas.Parameters) []string {
	reg, ok := r.entries[t]
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range reg.RequiredParams {
		v, present := params[name]
		if !present || v == nil || v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
