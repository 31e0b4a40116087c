package statemachine

import (
	"reflect"
	"runtime"
	"strings"
)

// Phase identifies where in a move a callback is being invoked.
// The first four values are guard phases, the rest are event phases,
// both listed in the order the machine runs them.
type Phase int

const (
	PhaseMoveToGuard Phase = iota
	PhaseGuardLeave
	PhaseGuardTransition
	PhaseGuardEnter
	PhaseOnBeforeTransition
	PhaseOnLeave
	PhaseTransitionTo
	PhaseOnEnter
	PhaseOnAfterTransition
)

// Phases lists every phase in execution order.
func Phases() []Phase {
	return []Phase{
		PhaseMoveToGuard,
		PhaseGuardLeave,
		PhaseGuardTransition,
		PhaseGuardEnter,
		PhaseOnBeforeTransition,
		PhaseOnLeave,
		PhaseTransitionTo,
		PhaseOnEnter,
		PhaseOnAfterTransition,
	}
}

// String returns the action tag passed to callbacks and used in rejection reasons.
func (p Phase) String() string {
	switch p {
	case PhaseMoveToGuard:
		return "moveToGuard"
	case PhaseGuardLeave:
		return "GUARD_LEAVE"
	case PhaseGuardTransition:
		return "GUARD_TRANSITION"
	case PhaseGuardEnter:
		return "GUARD_ENTER"
	case PhaseOnBeforeTransition:
		return "ON_BEFORE_TRANSITION"
	case PhaseOnLeave:
		return "ON_LEAVE"
	case PhaseTransitionTo:
		return "TRANSITION_TO"
	case PhaseOnEnter:
		return "ON_ENTER"
	case PhaseOnAfterTransition:
		return "ON_AFTER_TRANSITION"
	default:
		return "UNKNOWN_PHASE"
	}
}

// IsGuard reports whether callbacks in this phase are guards.
func (p Phase) IsGuard() bool {
	return p >= PhaseMoveToGuard && p <= PhaseGuardEnter
}

// Callback is a guard or an event. Guards veto a move by returning false.
// Events run once a move is certain; their return value is ignored.
type Callback[L any] interface {
	Invoke(from, to string, luggage L, phase Phase, m *Machine[L]) bool
	// Key is the name the callback was declared under. Empty means the
	// callback is identified by its position in its list.
	Key() string
	DisplayName() string
}

// GuardFunc adapts a plain function to a guard Callback.
type GuardFunc[L any] func(from, to string, luggage L, phase Phase, m *Machine[L]) bool

func (f GuardFunc[L]) Invoke(from, to string, luggage L, phase Phase, m *Machine[L]) bool {
	return f(from, to, luggage, phase, m)
}

func (f GuardFunc[L]) Key() string {
	return ""
}

func (f GuardFunc[L]) DisplayName() string {
	return funcName(f)
}

// EventFunc adapts a plain function to an event Callback.
type EventFunc[L any] func(from, to string, luggage L, phase Phase, m *Machine[L])

func (f EventFunc[L]) Invoke(from, to string, luggage L, phase Phase, m *Machine[L]) bool {
	f(from, to, luggage, phase, m)

	return true
}

func (f EventFunc[L]) Key() string {
	return ""
}

func (f EventFunc[L]) DisplayName() string {
	return funcName(f)
}

// keyed attaches a declaration key and display name to a callback.
type keyed[L any] struct {
	key  string
	name string
	cb   Callback[L]
}

func (k *keyed[L]) Invoke(from, to string, luggage L, phase Phase, m *Machine[L]) bool {
	return k.cb.Invoke(from, to, luggage, phase, m)
}

func (k *keyed[L]) Key() string {
	return k.key
}

func (k *keyed[L]) DisplayName() string {
	return k.name
}

// NewGuard wraps fn as a guard declared under key.
func NewGuard[L any](key string, fn GuardFunc[L]) Callback[L] { //nolint:ireturn
	return &keyed[L]{key: key, name: fn.DisplayName(), cb: fn}
}

// NewEvent wraps fn as an event declared under key.
func NewEvent[L any](key string, fn EventFunc[L]) Callback[L] { //nolint:ireturn
	return &keyed[L]{key: key, name: fn.DisplayName(), cb: fn}
}

// WithKey re-declares an existing callback under a different key, keeping its display name.
func WithKey[L any](key string, cb Callback[L]) Callback[L] { //nolint:ireturn
	return &keyed[L]{key: key, name: cb.DisplayName(), cb: cb}
}

// funcName resolves a function value to "pkg.Func" for diagnostics.
func funcName(fn any) string {
	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func || val.IsNil() {
		return "<nil>"
	}

	f := runtime.FuncForPC(val.Pointer())
	if f == nil {
		return "<unknown>"
	}

	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	return name
}
