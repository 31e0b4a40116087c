package statemachine

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrInvalidTargetState indicates the target of a move is not in the state table.
	ErrInvalidTargetState = errors.New("invalid target state")
	// ErrNoSuchTransition indicates the current state declares no transition to the target.
	ErrNoSuchTransition = errors.New("no such transition from current state")
	// ErrGuardRejected indicates a guard vetoed the move.
	ErrGuardRejected = errors.New("guard rejected transition")

	// ErrEmptyStateTable indicates a machine was constructed without any state.
	ErrEmptyStateTable = errors.New("state table has no states")
	// ErrInitialStateNotFound indicates the initial state is not in the table (strict mode only).
	ErrInitialStateNotFound = errors.New("initial state does not exist")
	// ErrStateNotDeclared indicates a builder transition references an undeclared source state.
	ErrStateNotDeclared = errors.New("state not declared")

	// ErrConfigNil indicates a nil config was supplied.
	ErrConfigNil = errors.New("config cannot be nil")
	// ErrStateNameRequired indicates that a state name is required.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrDuplicateStateName indicates that a duplicate state name was found.
	ErrDuplicateStateName = errors.New("duplicate state name")
	// ErrTransitionToRequired indicates that a transition target is required.
	ErrTransitionToRequired = errors.New("transition target is required")
	// ErrInvalidCallbackRef indicates a callback reference names neither or both of name and lua.
	ErrInvalidCallbackRef = errors.New("callback reference must set exactly one of name or lua")
	// ErrCallbackNotFound indicates a callback name is missing from the registry.
	ErrCallbackNotFound = errors.New("callback not registered")
	// ErrNoScriptCompiler indicates an inline script was used without a compiler.
	ErrNoScriptCompiler = errors.New("no script compiler registered")
)

// TransitionError wraps an error with transition context.
type TransitionError struct {
	From string
	To   string
	Err  error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("transition from %s: %v", e.From, e.Err)
	}

	return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapTransitionError wraps an error with transition context.
func WrapTransitionError(from, to string, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		From: from,
		To:   to,
		Err:  err,
	}
}

// StateError wraps an error with state context.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context.
func WrapStateError(state string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}
