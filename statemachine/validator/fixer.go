// Package validator lints state machine snapshots and proposes fixes for configs.
package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/amp-fsm/statemachine"
)

var (
	// ErrStateNotFound is returned when attempting to remove a state that doesn't exist.
	ErrStateNotFound = errors.New("state not found")
	// ErrDuplicateNotFound is returned when attempting to remove a duplicate that doesn't exist.
	ErrDuplicateNotFound = errors.New("duplicate not found")
	// ErrStateAlreadyExists is returned when attempting to declare a state twice.
	ErrStateAlreadyExists = errors.New("state already exists")
)

// Fix represents an automatic fix for a validation issue.
type Fix struct {
	Description string
	Apply       func(config *statemachine.Config) error
}

// DeclareState creates a fix that declares an empty state, typically an
// undeclared transition target.
func DeclareState(stateName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Declare state '%s'", stateName),
		Apply: func(config *statemachine.Config) error {
			for _, state := range config.States {
				if state.Name == stateName {
					return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, stateName)
				}
			}

			config.States = append(config.States, statemachine.StateConfig{Name: stateName})

			return nil
		},
	}
}

// RemoveUnreachableState creates a fix that removes a state and every transition into it.
func RemoveUnreachableState(stateName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove unreachable state '%s'", stateName),
		Apply: func(config *statemachine.Config) error {
			found := false

			config.States = slices.DeleteFunc(config.States, func(state statemachine.StateConfig) bool {
				if state.Name == stateName {
					found = true

					return true
				}

				return false
			})

			if !found {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, stateName)
			}

			for i := range config.States {
				config.States[i].TransitionsTo = slices.DeleteFunc(config.States[i].TransitionsTo,
					func(t statemachine.TransitionConfig) bool {
						return t.To == stateName
					})
			}

			return nil
		},
	}
}

// RemoveDuplicateTransition creates a fix that drops every declaration of
// from -> to after the first, which is the only one a machine ever uses.
func RemoveDuplicateTransition(from, to string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove duplicate transition from '%s' to '%s'", from, to),
		Apply: func(config *statemachine.Config) error {
			for i, state := range config.States {
				if state.Name != from {
					continue
				}

				seen := false
				removed := false

				config.States[i].TransitionsTo = slices.DeleteFunc(state.TransitionsTo,
					func(t statemachine.TransitionConfig) bool {
						if t.To != to {
							return false
						}

						if !seen {
							seen = true

							return false
						}

						removed = true

						return true
					})

				if !removed {
					return fmt.Errorf("%w: '%s' -> '%s'", ErrDuplicateNotFound, from, to)
				}

				return nil
			}

			return fmt.Errorf("%w: '%s'", ErrStateNotFound, from)
		},
	}
}

// ApplyFixes applies every fix attached to result's errors and warnings, in
// report order, and returns how many were applied.
func ApplyFixes(config *statemachine.Config, result ValidationResult) (int, error) {
	applied := 0

	for _, fix := range result.Fixes() {
		if err := fix.Apply(config); err != nil {
			return applied, fmt.Errorf("%s: %w", fix.Description, err)
		}

		applied++
	}

	return applied, nil
}
