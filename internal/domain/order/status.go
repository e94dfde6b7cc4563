package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOrdered    Status = "Ordered"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// ErrUnknownStatus is returned when a status string is not one of the
// known lifecycle states.
var ErrUnknownStatus = errors.New("unknown order status")

// InvalidTransitionError reports a status change that the lifecycle does
// not permit.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// next maps each status to its single forward successor. Terminal states
// have no successor.
var next = map[Status]Status{
	StatusOrdered:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOrdered, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether the lifecycle permits moving from s to
// target. Forward moves are restricted to the immediate successor
// (Ordered -> Delivered directly is rejected); Cancelled is reachable from
// any non-terminal state.
func (s Status) CanTransition(target Status) bool {
	if s.Terminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return next[s] == target
}
