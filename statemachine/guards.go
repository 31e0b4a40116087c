package statemachine

// IsTransitionAllowed evaluates every check guarding a move to target without
// performing it. The outcome is recorded and readable via LastRejection.
//
// Checks run in this order and stop at the first failure:
//   - target must be declared in the table
//   - the current state must declare a transition to target
//   - machine-wide move guards
//   - the current state's leave guards
//   - the transition's guards
//   - the target state's enter guards
func (m *Machine[L]) IsTransitionAllowed(target string) bool {
	m.rejection = Rejection{}

	from := m.currentState

	targetDef, ok := m.states.Get(target)
	if !ok {
		m.rejection = Rejection{Kind: RejectionInvalidTarget, From: from, To: target}

		return false
	}

	// The current state may be missing after an unchecked SetCurrentState.
	sourceDef, _ := m.states.Get(from)

	edge, ok := sourceDef.Transition(target)
	if !ok {
		m.rejection = Rejection{Kind: RejectionNoTransition, From: from, To: target}

		return false
	}

	if !m.runGuards(PhaseMoveToGuard, m.moveGuards, from, target) {
		return false
	}

	if !m.runGuards(PhaseGuardLeave, sourceDef.GuardLeave, from, target) {
		return false
	}

	if !m.runGuards(PhaseGuardTransition, edge.GuardTransition, from, target) {
		return false
	}

	return m.runGuards(PhaseGuardEnter, targetDef.GuardEnter, from, target)
}

// runGuards invokes guards in order and records the first one that refuses.
func (m *Machine[L]) runGuards(phase Phase, guards []Callback[L], from, to string) bool {
	for idx, guard := range guards {
		if guard.Invoke(from, to, m.luggage, phase, m) {
			continue
		}

		m.rejection = guardRejection(from, to, phase, idx, guard)

		return false
	}

	return true
}
