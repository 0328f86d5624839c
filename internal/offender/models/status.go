package models

import (
	dErrors "supervision/pkg/domain-errors"
)

// Status is the offender lifecycle status.
type Status string

const (
	// StatusInitial: offender created, identity not yet confirmed. A live
	// setup record accompanies this status.
	StatusInitial Status = "INITIAL"
	// StatusVerified: identity confirmed; the offender is scheduled for
	// periodic check-ins.
	StatusVerified Status = "VERIFIED"
	// StatusInactive: supervision ended. Terminal.
	StatusInactive Status = "INACTIVE"
)

// statusTransitions is the full transition table. Keeping it as data rather
// than logic on the entity makes the state machine testable in isolation.
var statusTransitions = map[Status][]Status{
	StatusInitial:  {StatusVerified, StatusInactive},
	StatusVerified: {StatusInactive},
	StatusInactive: {},
}

// CanTransitionTo reports whether the status may move to target. It is pure
// and total: unknown statuses simply have no allowed targets.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionError builds the caller-visible error for a rejected transition,
// naming both the current and the requested status.
func (s Status) TransitionError(target Status) error {
	return dErrors.Newf(dErrors.CodeInvalidState,
		"invalid offender status transition from %s to %s", s, target)
}
