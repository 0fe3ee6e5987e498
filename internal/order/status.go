package order

import (
	"strings"

	"github.com/MikeMC777/phonestore/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type Action string

const (
	ActionProcess Action = "process"
	ActionShip    Action = "ship"
	ActionDeliver Action = "deliver"
	ActionCancel  Action = "cancel"
)

// transitions is the whole state machine: from × action → to. Anything
// missing is rejected.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionProcess: StatusProcessing,
		ActionCancel:  StatusCancelled,
	},
	StatusProcessing: {
		ActionShip: StatusShipped,
	},
	StatusShipped: {
		ActionDeliver: StatusDelivered,
	},
}

// actionFor is the inverse used by "set status to X" requests.
var actionFor = map[Status]Action{
	StatusProcessing: ActionProcess,
	StatusShipped:    ActionShip,
	StatusDelivered:  ActionDeliver,
	StatusCancelled:  ActionCancel,
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", apperr.Invalid("invalid order status %q", s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Label() string {
	return strings.ToLower(string(s))
}

// Next applies action to from.
func Next(from Status, action Action) (Status, error) {
	if to, ok := transitions[from][action]; ok {
		return to, nil
	}
	if action == ActionCancel {
		return "", apperr.InvalidOperation("cannot cancel order already %s", from.Label())
	}
	return "", apperr.InvalidOperation("cannot %s order in status %s", action, from.Label())
}

// ActionTo returns the action that moves an order into target.
func ActionTo(target Status) (Action, error) {
	a, ok := actionFor[target]
	if !ok {
		return "", apperr.InvalidOperation("orders cannot be moved to %s", target.Label())
	}
	return a, nil
}
