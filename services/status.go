package services

import "decorly/models"

// transitions is the fixed successor table. Exact-match only: requesting
// Completed from Assigned is rejected even though it is "forward".
var transitions = map[string]string{
	models.StatusAssigned:  models.StatusConfirmed,
	models.StatusConfirmed: models.StatusCompleted,
}

// NextStatus returns the designated successor of current, or false when
// current is terminal or unknown.
func NextStatus(current string) (string, bool) {
	next, ok := transitions[current]
	return next, ok
}

// ValidTransition reports whether requested is the exact successor of
// current.
func ValidTransition(current, requested string) bool {
	next, ok := transitions[current]
	return ok && next == requested
}
