//nolint:lll // Long validation messages
package validator

import (
	"fmt"

	"github.com/amp-labs/amp-fsm/statemachine"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// Issue codes.
const (
	CodeEmptyStateID        = "EMPTY_STATE_ID"
	CodeDuplicateTransition = "DUPLICATE_TRANSITION"
	CodeUndeclaredTarget    = "UNDECLARED_TARGET"
	CodeUnreachableState    = "UNREACHABLE_STATE"
	CodeConfigLoadFailed    = "CONFIG_LOAD_FAILED"
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a snapshot for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(snap statemachine.Snapshot) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&emptyStateIDRule{},
		&duplicateTransitionRule{},
		&undeclaredTargetRule{},
		&unreachableStateRule{},
	}
}

// emptyStateIDRule flags empty state ids and empty transition targets.
type emptyStateIDRule struct{}

func (r *emptyStateIDRule) Name() string {
	return "EmptyStateID"
}

func (r *emptyStateIDRule) Severity() Severity {
	return SeverityError
}

func (r *emptyStateIDRule) Check(snap statemachine.Snapshot) RuleResult {
	var errors []ValidationError

	for i, state := range snap.States {
		if state.ID == "" {
			errors = append(errors, ValidationError{
				Code:     CodeEmptyStateID,
				Message:  fmt.Sprintf("State #%d has an empty id", i+1),
				Location: Location{Index: i + 1},
			})
		}

		for _, transition := range state.TransitionsTo {
			if transition.To == "" {
				errors = append(errors, ValidationError{
					Code:     CodeEmptyStateID,
					Message:  fmt.Sprintf("State '%s' declares a transition with an empty target", state.ID),
					Location: Location{State: state.ID},
				})
			}
		}
	}

	return RuleResult{Errors: errors}
}

// duplicateTransitionRule flags targets a state declares more than once. Only
// the first declaration is ever used.
type duplicateTransitionRule struct{}

func (r *duplicateTransitionRule) Name() string {
	return "DuplicateTransition"
}

func (r *duplicateTransitionRule) Severity() Severity {
	return SeverityError
}

func (r *duplicateTransitionRule) Check(snap statemachine.Snapshot) RuleResult {
	var errors []ValidationError

	for _, state := range snap.States {
		seen := make(map[string]int)

		for _, transition := range state.TransitionsTo {
			seen[transition.To]++

			// Report each duplicated target once.
			if seen[transition.To] != 2 { //nolint:mnd
				continue
			}

			errors = append(errors, ValidationError{
				Code:     CodeDuplicateTransition,
				Message:  fmt.Sprintf("State '%s' declares the transition to '%s' more than once; only the first is used", state.ID, transition.To),
				Location: Location{State: state.ID, Target: transition.To},
				Fix:      RemoveDuplicateTransition(state.ID, transition.To),
			})
		}
	}

	return RuleResult{Errors: errors}
}

// undeclaredTargetRule warns about transitions to states missing from the
// table. Moves along them are always rejected as invalid targets.
type undeclaredTargetRule struct{}

func (r *undeclaredTargetRule) Name() string {
	return "UndeclaredTarget"
}

func (r *undeclaredTargetRule) Severity() Severity {
	return SeverityWarning
}

func (r *undeclaredTargetRule) Check(snap statemachine.Snapshot) RuleResult {
	var warnings []ValidationWarning

	declared := declaredStates(snap)
	reported := make(map[string]bool)

	for _, state := range snap.States {
		for _, transition := range state.TransitionsTo {
			if transition.To == "" || declared[transition.To] {
				continue
			}

			warning := ValidationWarning{
				Code:     CodeUndeclaredTarget,
				Message:  fmt.Sprintf("State '%s' transitions to undeclared state '%s'; the move will always be rejected", state.ID, transition.To),
				Location: Location{State: state.ID, Target: transition.To},
			}

			// One declaration fixes every edge into the target.
			if !reported[transition.To] {
				warning.Fix = DeclareState(transition.To)
				reported[transition.To] = true
			}

			warnings = append(warnings, warning)
		}
	}

	return RuleResult{Warnings: warnings}
}

// unreachableStateRule warns about states no chain of transitions leads to
// from the start state. They can only be entered through SetCurrentState.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableStateRule) Check(snap statemachine.Snapshot) RuleResult {
	var warnings []ValidationWarning

	if len(snap.States) == 0 {
		return RuleResult{}
	}

	start := startState(snap)

	// Find all reachable states using BFS
	reachable := map[string]bool{start: true}

	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		state, ok := snap.State(current)
		if !ok {
			continue
		}

		for _, transition := range state.TransitionsTo {
			if !reachable[transition.To] {
				reachable[transition.To] = true
				queue = append(queue, transition.To)
			}
		}
	}

	for _, state := range snap.States {
		if reachable[state.ID] || state.ID == "" {
			continue
		}

		warnings = append(warnings, ValidationWarning{
			Code:     CodeUnreachableState,
			Message:  fmt.Sprintf("State '%s' cannot be reached from start state '%s'", state.ID, start),
			Location: Location{State: state.ID},
			Fix:      RemoveUnreachableState(state.ID),
		})
	}

	return RuleResult{Warnings: warnings}
}

// Helper functions

func declaredStates(snap statemachine.Snapshot) map[string]bool {
	declared := make(map[string]bool, len(snap.States))
	for _, state := range snap.States {
		declared[state.ID] = true
	}

	return declared
}

// startState is the snapshot's current state when declared, else the first state.
func startState(snap statemachine.Snapshot) string {
	if _, ok := snap.State(snap.CurrentState); ok && snap.CurrentState != "" {
		return snap.CurrentState
	}

	return snap.States[0].ID
}
