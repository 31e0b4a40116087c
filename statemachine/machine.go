package statemachine

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

const defaultMachineName = "statemachine"

// Machine drives a StateTable. It is a single-owner object: callers that share
// one machine between goroutines must serialize MoveTo and the setters themselves.
type Machine[L any] struct {
	id         string
	name       string
	workflowID string

	states       *StateTable[L]
	currentState string
	luggage      L

	moveGuards       []Callback[L]
	beforeTransition []Callback[L]
	afterTransition  []Callback[L]

	rejection Rejection

	strictInitial bool
	logger        Logger
	stats         counters
}

// Option configures a Machine at construction.
type Option[L any] func(*Machine[L])

// WithLuggage sets the context value handed to every callback.
func WithLuggage[L any](luggage L) Option[L] {
	return func(m *Machine[L]) {
		m.luggage = luggage
	}
}

// WithMoveGuards appends machine-wide guards, run before any state guard.
func WithMoveGuards[L any](guards ...Callback[L]) Option[L] {
	return func(m *Machine[L]) {
		m.moveGuards = append(m.moveGuards, guards...)
	}
}

// WithBeforeTransition appends machine-wide events run first on every move.
func WithBeforeTransition[L any](hooks ...Callback[L]) Option[L] {
	return func(m *Machine[L]) {
		m.beforeTransition = append(m.beforeTransition, hooks...)
	}
}

// WithAfterTransition appends machine-wide events run last on every move.
func WithAfterTransition[L any](hooks ...Callback[L]) Option[L] {
	return func(m *Machine[L]) {
		m.afterTransition = append(m.afterTransition, hooks...)
	}
}

// WithLogger sets the logger. Without one the machine does not log.
func WithLogger[L any](logger Logger) Option[L] {
	return func(m *Machine[L]) {
		m.logger = logger
	}
}

// WithName sets the name used as the metric label and in logs.
func WithName[L any](name string) Option[L] {
	return func(m *Machine[L]) {
		m.name = name
	}
}

// WithID overrides the generated instance id.
func WithID[L any](id string) Option[L] {
	return func(m *Machine[L]) {
		m.id = id
	}
}

// WithWorkflowID tags the machine with the host's workflow id. It is only
// ever exported hashed.
func WithWorkflowID[L any](workflowID string) Option[L] {
	return func(m *Machine[L]) {
		m.workflowID = workflowID
	}
}

// WithStrictInitialState makes New fail with ErrInitialStateNotFound instead of
// falling back to the first declared state.
func WithStrictInitialState[L any]() Option[L] {
	return func(m *Machine[L]) {
		m.strictInitial = true
	}
}

// New creates a machine over states, starting in initial. An empty or unknown
// initial state falls back to the first declared state unless
// WithStrictInitialState is given.
func New[L any](states *StateTable[L], initial string, opts ...Option[L]) (*Machine[L], error) {
	if states.Len() == 0 {
		return nil, ErrEmptyStateTable
	}

	machine := &Machine[L]{
		id:     uuid.NewString(),
		name:   defaultMachineName,
		states: states,
	}

	for _, opt := range opts {
		opt(machine)
	}

	if states.Has(initial) {
		machine.currentState = initial

		return machine, nil
	}

	if machine.strictInitial {
		return nil, fmt.Errorf("%w: %q", ErrInitialStateNotFound, initial)
	}

	first, _ := states.First()
	machine.currentState = first

	if machine.logger != nil {
		machine.logger.InitialStateSubstituted(context.Background(), machine.labels(), initial, first)
	}

	return machine, nil
}

// ID returns the instance id.
func (m *Machine[L]) ID() string {
	return m.id
}

// Name returns the machine name.
func (m *Machine[L]) Name() string {
	return m.name
}

// States returns the state table. Treat it as read-only.
func (m *Machine[L]) States() *StateTable[L] {
	return m.states
}

// CurrentState returns the current state id.
func (m *Machine[L]) CurrentState() string {
	return m.currentState
}

// NextStates lists the targets declared by the current state, in declaration
// order. Targets are listed whether or not they are themselves declared.
func (m *Machine[L]) NextStates() []string {
	def, ok := m.states.Get(m.currentState)
	if !ok {
		return []string{}
	}

	return def.Targets()
}

// SetCurrentState overwrites the current state without running any guard or
// callback and without checking the table. Intended for initialization and
// recovery only.
func (m *Machine[L]) SetCurrentState(id string) {
	from := m.currentState
	m.currentState = id

	if m.logger != nil {
		m.logger.StateForced(context.Background(), m.labels(), from, id)
	}
}

// Luggage returns the context value handed to callbacks.
func (m *Machine[L]) Luggage() L {
	return m.luggage
}

// SetLuggage replaces the luggage.
func (m *Machine[L]) SetLuggage(luggage L) {
	m.luggage = luggage
}

// MoveToGuards returns a copy of the machine-wide guards.
func (m *Machine[L]) MoveToGuards() []Callback[L] {
	return slices.Clone(m.moveGuards)
}

// BeforeTransitionHooks returns a copy of the machine-wide before hooks.
func (m *Machine[L]) BeforeTransitionHooks() []Callback[L] {
	return slices.Clone(m.beforeTransition)
}

// AfterTransitionHooks returns a copy of the machine-wide after hooks.
func (m *Machine[L]) AfterTransitionHooks() []Callback[L] {
	return slices.Clone(m.afterTransition)
}

// LastRejection returns the rejection recorded by the latest evaluation.
func (m *Machine[L]) LastRejection() Rejection {
	return m.rejection
}

// LastRejectionReason returns the rejection reason recorded by the latest
// evaluation, or "" if that evaluation allowed the move.
func (m *Machine[L]) LastRejectionReason() string {
	return m.rejection.Reason()
}

// Stats returns the machine's counters. Safe to call from any goroutine.
func (m *Machine[L]) Stats() Stats {
	return m.stats.snapshot()
}

func (m *Machine[L]) labels() MachineLabels {
	return MachineLabels{
		ID:         m.id,
		Name:       m.name,
		WorkflowID: m.workflowID,
	}
}
