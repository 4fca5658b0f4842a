package order

import "time"

// PlacedEvent is published once an order is persisted and stock has been processed.
type PlacedEvent struct {
	Order      *Order
	OccurredAt time.Time
}

func (PlacedEvent) EventName() string { return "order.placed" }

func (e PlacedEvent) EventKey() string {
	if e.Order == nil {
		return ""
	}
	return e.Order.ID
}

func NewPlacedEvent(o *Order, now time.Time) PlacedEvent {
	return PlacedEvent{
		Order:      o.Clone(),
		OccurredAt: now.UTC(),
	}
}
