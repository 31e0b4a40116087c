package statemachine

// TransitionDefinition is the edge from one state to To, with its own guards and events.
type TransitionDefinition[L any] struct {
	To              string
	Label           string
	GuardTransition []Callback[L]
	OnTransition    []Callback[L]
}

// StateDefinition describes a single state. Every list runs in declaration order.
type StateDefinition[L any] struct {
	Label      string
	GuardEnter []Callback[L]
	GuardLeave []Callback[L]
	OnEnter    []Callback[L]
	OnLeave    []Callback[L]

	// TransitionsTo is keyed by target. When a target appears twice the
	// first declaration wins.
	TransitionsTo []*TransitionDefinition[L]
}

// Transition returns the edge to target, if declared.
func (s *StateDefinition[L]) Transition(target string) (*TransitionDefinition[L], bool) {
	if s == nil {
		return nil, false
	}

	for _, t := range s.TransitionsTo {
		if t != nil && t.To == target {
			return t, true
		}
	}

	return nil, false
}

// Targets returns the declared targets in order, without duplicates.
func (s *StateDefinition[L]) Targets() []string {
	targets := []string{}
	if s == nil {
		return targets
	}

	seen := make(map[string]struct{}, len(s.TransitionsTo))

	for _, t := range s.TransitionsTo {
		if t == nil {
			continue
		}

		if _, dup := seen[t.To]; dup {
			continue
		}

		seen[t.To] = struct{}{}
		targets = append(targets, t.To)
	}

	return targets
}

// StateTable is an ordered mapping from state id to definition.
// The machine never mutates it; callers that keep a reference may, at their own risk.
type StateTable[L any] struct {
	order  []string
	states map[string]*StateDefinition[L]
}

// NewStateTable creates an empty table.
func NewStateTable[L any]() *StateTable[L] {
	return &StateTable[L]{
		order:  []string{},
		states: make(map[string]*StateDefinition[L]),
	}
}

// Add declares id. Re-declaring an id replaces its definition but keeps its position.
// A nil definition is stored as an empty one.
func (t *StateTable[L]) Add(id string, def *StateDefinition[L]) *StateTable[L] {
	if def == nil {
		def = &StateDefinition[L]{}
	}

	if _, exists := t.states[id]; !exists {
		t.order = append(t.order, id)
	}

	t.states[id] = def

	return t
}

// Get returns the definition of id.
func (t *StateTable[L]) Get(id string) (*StateDefinition[L], bool) {
	if t == nil {
		return nil, false
	}

	def, ok := t.states[id]

	return def, ok
}

// Has reports whether id is declared.
func (t *StateTable[L]) Has(id string) bool {
	_, ok := t.Get(id)

	return ok
}

// IDs returns the declared ids in declaration order.
func (t *StateTable[L]) IDs() []string {
	if t == nil {
		return []string{}
	}

	ids := make([]string, len(t.order))
	copy(ids, t.order)

	return ids
}

// First returns the first declared id.
func (t *StateTable[L]) First() (string, bool) {
	if t == nil || len(t.order) == 0 {
		return "", false
	}

	return t.order[0], true
}

// Len returns the number of declared states.
func (t *StateTable[L]) Len() int {
	if t == nil {
		return 0
	}

	return len(t.order)
}
