package order

import (
	"fmt"
	"time"
)

// OrderState implements the state pattern for administrative status changes.
// The invoice and cart are never touched by a transition.
type OrderState interface {
	Status() Status
	Process() (OrderState, error)
	Deliver() (OrderState, error)
	Cancel() (OrderState, error)
}

func StateOf(s Status) (OrderState, error) {
	switch s {
	case StatusPending:
		return pendingState{}, nil
	case StatusProcessing:
		return processingState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusCancelled:
		return cancelledState{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, s)
	}
}

// TransitionTo moves the order to target, or reports ErrInvalidStateTransition.
func (o *Order) TransitionTo(target Status, now time.Time) error {
	current, err := StateOf(o.Status)
	if err != nil {
		return err
	}
	if current.Status() == target {
		return nil
	}

	var next OrderState
	switch target {
	case StatusProcessing:
		next, err = current.Process()
	case StatusDelivered:
		next, err = current.Deliver()
	case StatusCancelled:
		next, err = current.Cancel()
	default:
		err = fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, target)
	}
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch(now)
	return nil
}

func invalid(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to)
}

type pendingState struct{}

func (pendingState) Status() Status               { return StatusPending }
func (pendingState) Process() (OrderState, error) { return processingState{}, nil }
func (pendingState) Deliver() (OrderState, error) {
	return nil, invalid(StatusPending, StatusDelivered)
}
func (pendingState) Cancel() (OrderState, error) { return cancelledState{}, nil }

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }
func (processingState) Process() (OrderState, error) {
	return processingState{}, nil
}
func (processingState) Deliver() (OrderState, error) { return deliveredState{}, nil }
func (processingState) Cancel() (OrderState, error)  { return cancelledState{}, nil }

type deliveredState struct{}

func (deliveredState) Status() Status { return StatusDelivered }
func (deliveredState) Process() (OrderState, error) {
	return nil, invalid(StatusDelivered, StatusProcessing)
}
func (deliveredState) Deliver() (OrderState, error) { return deliveredState{}, nil }
func (deliveredState) Cancel() (OrderState, error) {
	return nil, invalid(StatusDelivered, StatusCancelled)
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }
func (cancelledState) Process() (OrderState, error) {
	return nil, invalid(StatusCancelled, StatusProcessing)
}
func (cancelledState) Deliver() (OrderState, error) {
	return nil, invalid(StatusCancelled, StatusDelivered)
}
func (cancelledState) Cancel() (OrderState, error) { return cancelledState{}, nil }
