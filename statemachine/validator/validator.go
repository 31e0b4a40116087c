package validator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/statemachine"
)

// ValidationResult contains the results of validating a state machine.
type ValidationResult struct {
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with fix suggestions.
type ValidationError struct {
	Code     string   // Error code like "DUPLICATE_TRANSITION"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string   // Warning code
	Message  string   // Human-readable warning message
	Location Location // Where the warning occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // Code example showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File   string // Config file path
	State  string // State id if applicable
	Target string // Transition target if applicable
	Index  int    // 1-based state position when the id is unusable
}

// Validate checks a snapshot against the default rules.
func Validate(snap statemachine.Snapshot) ValidationResult {
	return ValidateWithRules(snap, DefaultRules())
}

// ValidateConfig validates the snapshot of an already loaded config.
func ValidateConfig(config *statemachine.Config) ValidationResult {
	return Validate(config.Snapshot())
}

// ValidateFile loads a config from a file and validates it.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict loads a config from a file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions loads a config from a file and validates it with options.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Code:     CodeConfigLoadFailed,
					Message:  fmt.Sprintf("Failed to load config: %v", err),
					Location: Location{File: path},
				},
			},
		}, err
	}

	var result ValidationResult
	if strict {
		result = ValidateWithRulesStrict(config.Snapshot(), DefaultRules())
	} else {
		result = ValidateConfig(config)
	}

	// Set file location for all errors and warnings
	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateWithRules validates using custom rules. Issues are reported in
// natural order of state id, then code.
func ValidateWithRules(snap statemachine.Snapshot, rules []Rule) ValidationResult {
	var result ValidationResult

	result.Valid = true

	// Run all validation rules
	for _, rule := range rules {
		ruleResult := rule.Check(snap)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	slices.SortStableFunc(result.Errors, func(a, b ValidationError) int {
		return compareLocations(a.Location, a.Code, b.Location, b.Code)
	})
	slices.SortStableFunc(result.Warnings, func(a, b ValidationWarning) int {
		return compareLocations(a.Location, a.Code, b.Location, b.Code)
	})

	// If any errors found, mark as invalid
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	// Add general suggestions
	result.Suggestions = generateSuggestions(snap)

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(snap statemachine.Snapshot, rules []Rule) ValidationResult {
	result := ValidateWithRules(snap, rules)

	// In strict mode, treat warnings as errors
	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError(warning))
	}

	// Clear warnings since they're now errors
	result.Warnings = nil

	// Mark as invalid if there are errors
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

func compareLocations(a Location, aCode string, b Location, bCode string) int {
	if a.State != b.State {
		if natsort.Compare(a.State, b.State) {
			return -1
		}

		return 1
	}

	return cmp.Or(
		cmp.Compare(a.Index, b.Index),
		cmp.Compare(aCode, bCode),
		strings.Compare(a.Target, b.Target),
	)
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(snap statemachine.Snapshot) []Suggestion {
	var suggestions []Suggestion

	// Suggest naming conventions
	hasNonSnakeCase := false

	for _, state := range snap.States {
		if !isSnakeCase(state.ID) {
			hasNonSnakeCase = true

			break
		}
	}

	if hasNonSnakeCase {
		suggestions = append(suggestions, Suggestion{
			Message: "Consider using snake_case for state names for consistency",
			Example: `states:
  - name: awaiting_review  # Good
    # instead of: awaitingReview, Awaiting-Review`,
		})
	}

	// Suggest labels once a diagram gets busy
	hasLabels := false

	for _, state := range snap.States {
		if state.Label != "" {
			hasLabels = true

			break
		}
	}

	if !hasLabels && len(snap.States) > 3 { //nolint:mnd
		suggestions = append(suggestions, Suggestion{
			Message: "Consider adding labels so rendered diagrams stay readable",
			Example: `states:
  - name: awaiting_review
    label: Awaiting review
    transitionsTo:
      - to: approved
        label: Approve`,
		})
	}

	return suggestions
}

func isSnakeCase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}

		if r == '-' || r == ' ' {
			return false
		}
	}

	return true
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Fixes returns every available fix, errors first.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Configuration is valid\n")
	} else {
		fmt.Fprintf(&sb, "✗ Configuration has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  [%s] %s\n", err.Code, err.Message)

			if err.Fix != nil {
				fmt.Fprintf(&sb, "    Fix: %s\n", err.Fix.Description)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", warn.Code, warn.Message)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "\n%d suggestion(s) for improvement\n", len(r.Suggestions))
	}

	return sb.String()
}
