package statemachine

import "fmt"

// Builder provides a fluent API for constructing state tables and machines.
type Builder[L any] struct {
	table            *StateTable[L]
	moveGuards       []Callback[L]
	beforeTransition []Callback[L]
	afterTransition  []Callback[L]
	err              error
}

// StateBuilder configures one state.
type StateBuilder[L any] struct {
	builder *Builder[L]
	def     *StateDefinition[L]
}

// TransitionBuilder configures one transition.
type TransitionBuilder[L any] struct {
	def *TransitionDefinition[L]
}

// NewBuilder creates a new builder.
func NewBuilder[L any]() *Builder[L] {
	return &Builder[L]{
		table: NewStateTable[L](),
	}
}

// State declares id, or returns the existing declaration.
func (b *Builder[L]) State(id string) *StateBuilder[L] {
	def, ok := b.table.Get(id)
	if !ok {
		def = &StateDefinition[L]{}
		b.table.Add(id, def)
	}

	return &StateBuilder[L]{builder: b, def: def}
}

// Transition adds an edge from an already declared state. The target does not
// need to be declared.
func (b *Builder[L]) Transition(from, to string) *TransitionBuilder[L] {
	def, ok := b.table.Get(from)
	if !ok {
		if b.err == nil {
			b.err = fmt.Errorf("%w: %q (transition to %q)", ErrStateNotDeclared, from, to)
		}

		return &TransitionBuilder[L]{def: &TransitionDefinition[L]{To: to}}
	}

	return (&StateBuilder[L]{builder: b, def: def}).To(to)
}

// MoveGuard appends machine-wide guards.
func (b *Builder[L]) MoveGuard(guards ...Callback[L]) *Builder[L] {
	b.moveGuards = append(b.moveGuards, guards...)

	return b
}

// BeforeTransition appends machine-wide before hooks.
func (b *Builder[L]) BeforeTransition(hooks ...Callback[L]) *Builder[L] {
	b.beforeTransition = append(b.beforeTransition, hooks...)

	return b
}

// AfterTransition appends machine-wide after hooks.
func (b *Builder[L]) AfterTransition(hooks ...Callback[L]) *Builder[L] {
	b.afterTransition = append(b.afterTransition, hooks...)

	return b
}

// Table returns the built state table.
func (b *Builder[L]) Table() (*StateTable[L], error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.table, nil
}

// Build constructs the machine. Machine-wide hooks registered on the builder
// run before any passed through opts.
func (b *Builder[L]) Build(initial string, opts ...Option[L]) (*Machine[L], error) {
	table, err := b.Table()
	if err != nil {
		return nil, err
	}

	all := make([]Option[L], 0, len(opts)+3) //nolint:mnd
	all = append(all,
		WithMoveGuards(b.moveGuards...),
		WithBeforeTransition(b.beforeTransition...),
		WithAfterTransition(b.afterTransition...),
	)
	all = append(all, opts...)

	return New(table, initial, all...)
}

// Label sets the state's display label.
func (s *StateBuilder[L]) Label(label string) *StateBuilder[L] {
	s.def.Label = label

	return s
}

// GuardEnter appends guards run when the state is the target.
func (s *StateBuilder[L]) GuardEnter(guards ...Callback[L]) *StateBuilder[L] {
	s.def.GuardEnter = append(s.def.GuardEnter, guards...)

	return s
}

// GuardLeave appends guards run when the state is the source.
func (s *StateBuilder[L]) GuardLeave(guards ...Callback[L]) *StateBuilder[L] {
	s.def.GuardLeave = append(s.def.GuardLeave, guards...)

	return s
}

// OnEnter appends events run after the state became current.
func (s *StateBuilder[L]) OnEnter(events ...Callback[L]) *StateBuilder[L] {
	s.def.OnEnter = append(s.def.OnEnter, events...)

	return s
}

// OnLeave appends events run before the state is left.
func (s *StateBuilder[L]) OnLeave(events ...Callback[L]) *StateBuilder[L] {
	s.def.OnLeave = append(s.def.OnLeave, events...)

	return s
}

// To declares an edge to target, or returns the existing one.
func (s *StateBuilder[L]) To(target string) *TransitionBuilder[L] {
	if edge, ok := s.def.Transition(target); ok {
		return &TransitionBuilder[L]{def: edge}
	}

	edge := &TransitionDefinition[L]{To: target}
	s.def.TransitionsTo = append(s.def.TransitionsTo, edge)

	return &TransitionBuilder[L]{def: edge}
}

// Label sets the transition's display label.
func (t *TransitionBuilder[L]) Label(label string) *TransitionBuilder[L] {
	t.def.Label = label

	return t
}

// Guard appends transition guards.
func (t *TransitionBuilder[L]) Guard(guards ...Callback[L]) *TransitionBuilder[L] {
	t.def.GuardTransition = append(t.def.GuardTransition, guards...)

	return t
}

// On appends transition events.
func (t *TransitionBuilder[L]) On(events ...Callback[L]) *TransitionBuilder[L] {
	t.def.OnTransition = append(t.def.OnTransition, events...)

	return t
}
