package model

import "strings"

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusPreparing,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// ParseOrderStatus converts user input into a known status.
func ParseOrderStatus(value string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", InvalidStatus(value)
	}
	return s, nil
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether the lifecycle allows s -> target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedSources returns every status from which target may be reached.
// The result is what a conditional update matches the current row against.
func AllowedSources(target OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for _, from := range AllStatuses {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// HasReached reports whether s is at or past target on the main path
// pending -> paid -> preparing -> ready -> completed. Cancelled orders have
// reached nothing.
func (s OrderStatus) HasReached(target OrderStatus) bool {
	rank := func(v OrderStatus) int {
		for i, p := range AllStatuses[:5] {
			if p == v {
				return i
			}
		}
		return -1
	}
	r, t := rank(s), rank(target)
	return r >= 0 && t >= 0 && r >= t
}
