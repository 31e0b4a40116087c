// Package statemachine is an embeddable finite-state-machine engine.
//
// A Machine walks a declarative StateTable. Each move runs an ordered chain of
// guards, which may veto it, followed by an ordered chain of events, which may
// not. A caller-owned luggage value of type L is handed to every callback.
//
// A move to target runs:
//
//	moveToGuard -> GUARD_LEAVE -> GUARD_TRANSITION -> GUARD_ENTER
//	-> ON_BEFORE_TRANSITION -> ON_LEAVE -> TRANSITION_TO
//	-> (current state := target) -> ON_ENTER -> ON_AFTER_TRANSITION
//
// The first guard returning false stops the move; LastRejectionReason then
// names the phase and the guard. Events always run to completion once the
// guards have passed.
//
// Machines are single-owner and synchronous. Nothing in a move blocks on I/O
// or honours cancellation except what the callbacks themselves do.
package statemachine
