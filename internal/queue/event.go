// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// BookingQueueName is the durable queue booking events are published to.
const BookingQueueName = "booking.events"

// Booking event types.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking or cancellation commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingEvent struct {
	Type       string    `json:"type"`
	UserID     uint64    `json:"user_id"`
	ClassID    uint64    `json:"class_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
