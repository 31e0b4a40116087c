package statemachine

import (
	"fmt"
	"strconv"
)

// RejectionKind classifies why a move was refused.
type RejectionKind int

const (
	RejectionNone RejectionKind = iota
	RejectionInvalidTarget
	RejectionNoTransition
	RejectionGuard
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionNone:
		return "none"
	case RejectionInvalidTarget:
		return "invalid_target"
	case RejectionNoTransition:
		return "no_transition"
	case RejectionGuard:
		return "guard"
	default:
		return "unknown"
	}
}

// Rejection records the most recent refused move. The zero value means nothing was recorded.
// Phase, Key and Name are only meaningful for RejectionGuard.
type Rejection struct {
	Kind  RejectionKind
	From  string
	To    string
	Phase Phase
	Key   string
	Name  string
}

// Rejected reports whether a rejection was recorded.
func (r Rejection) Rejected() bool {
	return r.Kind != RejectionNone
}

// Reason renders the rejection for diagnostics. Guard rejections read
// "<phase>: (<key>) <name>".
func (r Rejection) Reason() string {
	switch r.Kind {
	case RejectionNone:
		return ""
	case RejectionInvalidTarget:
		return fmt.Sprintf("%s: %s", ErrInvalidTargetState, r.To)
	case RejectionNoTransition:
		return fmt.Sprintf("%s: %s -> %s", ErrNoSuchTransition, r.From, r.To)
	case RejectionGuard:
		return fmt.Sprintf("%s: (%s) %s", r.Phase, r.Key, r.Name)
	default:
		return ""
	}
}

// Err maps the rejection to a *TransitionError wrapping the matching sentinel, or nil.
func (r Rejection) Err() error {
	switch r.Kind {
	case RejectionNone:
		return nil
	case RejectionInvalidTarget:
		return WrapTransitionError(r.From, r.To, ErrInvalidTargetState)
	case RejectionNoTransition:
		return WrapTransitionError(r.From, r.To, ErrNoSuchTransition)
	case RejectionGuard:
		return WrapTransitionError(r.From, r.To, fmt.Errorf("%w: %s", ErrGuardRejected, r.Reason()))
	default:
		return nil
	}
}

// guardRejection builds the rejection for the callback at index within phase.
func guardRejection[L any](from, to string, phase Phase, index int, cb Callback[L]) Rejection {
	key := cb.Key()
	if key == "" {
		key = strconv.Itoa(index)
	}

	return Rejection{
		Kind:  RejectionGuard,
		From:  from,
		To:    to,
		Phase: phase,
		Key:   key,
		Name:  cb.DisplayName(),
	}
}
