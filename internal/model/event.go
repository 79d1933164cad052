package model

import "time"

// Event is a studio event (workshop, retreat) students can sign up for.
// Events have no capacity limit.
type Event struct {
	ID          uint64    `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"-"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
}
