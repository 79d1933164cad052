package model

import "time"

// BookingCode is the closed set of outcomes reported for a booking attempt
// or a cancellation.
type BookingCode string

const (
	CodeOK               BookingCode = "OK"
	CodeAlreadyBooked    BookingCode = "ALREADY_BOOKED"
	CodeClassFull        BookingCode = "CLASS_FULL"
	CodeClassNotFound    BookingCode = "CLASS_NOT_FOUND"
	CodeNotBooked        BookingCode = "NOT_BOOKED"
	CodeUnauthenticated  BookingCode = "UNAUTHENTICATED"
	CodeTransientFailure BookingCode = "TRANSIENT_FAILURE"
)

// Retryable reports whether an identical request may succeed later.
// Business rejections are final and must not be retried.
func (c BookingCode) Retryable() bool { return c == CodeTransientFailure }

// Booking is one student's seat in one class.  Identity is the
// (UserID, ClassID) pair; at most one booking exists per pair.
type Booking struct {
	UserID   uint64    // class_bookings.user_id
	ClassID  uint64    // class_bookings.class_id
	BookedAt time.Time // class_bookings.booked_at (audit only)
}
