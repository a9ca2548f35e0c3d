package domain

import "fmt"

// ValidationError signals that a supplied value violates a domain rule.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

// TransitionError reports a rejected state-machine transition. Every
// status-carrying entity (Session, attendance, coaching relationship)
// validates its transitions centrally and returns this type instead of
// silently relying on callers to only offer legal actions.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: illegal transition from %s to %s", e.Entity, e.From, e.To)
}
