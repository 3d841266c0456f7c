// Package lifecycle holds the application status transition table.  It is
// the only place that decides whether a department action is legal for a
// given status; callers never write a status they received from a client.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/citizen-services/internal/model"
)

// Action is a department-side operation on an application.
type Action string

const (
	ActionStartReview Action = "start-review"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionForward     Action = "forward"
)

var (
	// ErrUnknownAction is returned by ParseAction for unrecognized input.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidTransition is returned when an action is not legal from the
	// current status.
	ErrInvalidTransition = errors.New("invalid transition")
)

type edge struct {
	from   model.ApplicationStatus
	action Action
}

// transitions is the complete table.  approved and rejected are terminal;
// forwarded has no outgoing edge.
var transitions = map[edge]model.ApplicationStatus{
	{model.StatusPending, ActionStartReview}: model.StatusInReview,
	{model.StatusPending, ActionApprove}:     model.StatusApproved,
	{model.StatusPending, ActionReject}:      model.StatusRejected,
	{model.StatusInReview, ActionApprove}:    model.StatusApproved,
	{model.StatusInReview, ActionForward}:    model.StatusForwarded,
	{model.StatusInReview, ActionReject}:     model.StatusRejected,
}

// actionOrder fixes the order Allowed reports actions in.
var actionOrder = []Action{ActionStartReview, ActionApprove, ActionForward, ActionReject}

// ParseAction accepts the canonical action names and the dashboard's
// "review" shorthand, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionStartReview, ActionApprove, ActionReject, ActionForward:
		return a, nil
	case "review":
		return ActionStartReview, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Next returns the status reached by applying action to from.
func Next(from model.ApplicationStatus, action Action) (model.ApplicationStatus, error) {
	to, ok := transitions[edge{from, action}]
	if !ok {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// Allowed lists the actions legal from status, in dashboard order.
func Allowed(status model.ApplicationStatus) []Action {
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if _, ok := transitions[edge{status, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Terminal reports whether no action leads out of status.
func Terminal(status model.ApplicationStatus) bool {
	return len(Allowed(status)) == 0
}

// RecordsApprover reports whether the action stamps the acting officer as
// approver.
func RecordsApprover(action Action) bool {
	return action == ActionApprove
}
