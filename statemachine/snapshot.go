package statemachine

// CallbackInfo names a callback for display.
type CallbackInfo struct {
	Key  string `json:"key,omitempty" yaml:"key,omitempty"`
	Name string `json:"name"          yaml:"name"`
}

// TransitionSnapshot describes one edge.
type TransitionSnapshot struct {
	To              string         `json:"to"                        yaml:"to"`
	Label           string         `json:"label,omitempty"           yaml:"label,omitempty"`
	GuardTransition []CallbackInfo `json:"guardTransition,omitempty" yaml:"guardTransition,omitempty"`
	OnTransition    []CallbackInfo `json:"onTransition,omitempty"    yaml:"onTransition,omitempty"`
}

// StateSnapshot describes one state.
type StateSnapshot struct {
	ID            string               `json:"id"                      yaml:"id"`
	Label         string               `json:"label,omitempty"         yaml:"label,omitempty"`
	GuardEnter    []CallbackInfo       `json:"guardEnter,omitempty"    yaml:"guardEnter,omitempty"`
	GuardLeave    []CallbackInfo       `json:"guardLeave,omitempty"    yaml:"guardLeave,omitempty"`
	OnEnter       []CallbackInfo       `json:"onEnter,omitempty"       yaml:"onEnter,omitempty"`
	OnLeave       []CallbackInfo       `json:"onLeave,omitempty"       yaml:"onLeave,omitempty"`
	TransitionsTo []TransitionSnapshot `json:"transitionsTo,omitempty" yaml:"transitionsTo,omitempty"`
}

// Snapshot is a luggage-independent copy of a machine's structure, used by
// renderers and validators. CurrentState is empty when taken from a bare table.
type Snapshot struct {
	Name             string          `json:"name,omitempty"             yaml:"name,omitempty"`
	CurrentState     string          `json:"currentState,omitempty"     yaml:"currentState,omitempty"`
	States           []StateSnapshot `json:"states"                     yaml:"states"`
	MoveGuards       []CallbackInfo  `json:"moveGuards,omitempty"       yaml:"moveGuards,omitempty"`
	BeforeTransition []CallbackInfo  `json:"beforeTransition,omitempty" yaml:"beforeTransition,omitempty"`
	AfterTransition  []CallbackInfo  `json:"afterTransition,omitempty"  yaml:"afterTransition,omitempty"`
}

// State returns the snapshot of id.
func (s Snapshot) State(id string) (StateSnapshot, bool) {
	for _, state := range s.States {
		if state.ID == id {
			return state, true
		}
	}

	return StateSnapshot{}, false
}

// Snapshot describes the table.
func (t *StateTable[L]) Snapshot() Snapshot {
	snap := Snapshot{States: make([]StateSnapshot, 0, t.Len())}

	for _, id := range t.IDs() {
		def, _ := t.Get(id)

		state := StateSnapshot{
			ID:         id,
			Label:      def.Label,
			GuardEnter: describe(def.GuardEnter),
			GuardLeave: describe(def.GuardLeave),
			OnEnter:    describe(def.OnEnter),
			OnLeave:    describe(def.OnLeave),
		}

		for _, edge := range def.TransitionsTo {
			if edge == nil {
				continue
			}

			state.TransitionsTo = append(state.TransitionsTo, TransitionSnapshot{
				To:              edge.To,
				Label:           edge.Label,
				GuardTransition: describe(edge.GuardTransition),
				OnTransition:    describe(edge.OnTransition),
			})
		}

		snap.States = append(snap.States, state)
	}

	return snap
}

// Snapshot describes the machine, including its current state and machine-wide hooks.
func (m *Machine[L]) Snapshot() Snapshot {
	snap := m.states.Snapshot()
	snap.Name = m.name
	snap.CurrentState = m.currentState
	snap.MoveGuards = describe(m.moveGuards)
	snap.BeforeTransition = describe(m.beforeTransition)
	snap.AfterTransition = describe(m.afterTransition)

	return snap
}

func describe[L any](callbacks []Callback[L]) []CallbackInfo {
	if len(callbacks) == 0 {
		return nil
	}

	infos := make([]CallbackInfo, len(callbacks))
	for i, cb := range callbacks {
		infos[i] = CallbackInfo{Key: cb.Key(), Name: cb.DisplayName()}
	}

	return infos
}
