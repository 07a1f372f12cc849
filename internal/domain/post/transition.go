package post

import "fmt"

// Action is a moderation request against a post
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionResolve Action = "resolve"
	ActionReopen  Action = "reopen"
)

type edge struct {
	from []Status
	to   Status
}

// transitions is the whole state machine. open is the only initial state and
// every other state can only go back to open.
var transitions = map[Action]edge{
	ActionApprove: {from: []Status{StatusOpen}, to: StatusApproved},
	ActionReject:  {from: []Status{StatusOpen}, to: StatusRejected},
	ActionResolve: {from: []Status{StatusOpen}, to: StatusResolved},
	ActionReopen:  {from: []Status{StatusApproved, StatusRejected, StatusResolved}, to: StatusOpen},
}

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Next returns the status reached by applying action to current
func Next(current Status, action Action) (Status, error) {
	e, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	for _, from := range e.from {
		if from == current {
			return e.to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a post that is %s", ErrInvalidTransition, action, current)
}
