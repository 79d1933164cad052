package model

import "time"

// ClassSession is one scheduled class occurrence.  Capacity is fixed at
// creation; SeatsAvailable is mutated only by the capacity ledger and always
// equals Capacity minus the number of active bookings.
//
// Fields:
//  ID             – primary key identifier (immutable).
//  Date           – calendar day of the class (UTC midnight).
//  StartTime      – HH:MM start.
//  EndTime        – HH:MM end, after StartTime.
//  Location       – studio or room name.
//  Capacity       – maximum number of active bookings (> 0).
//  SeatsAvailable – remaining seats, 0 ≤ SeatsAvailable ≤ Capacity.
//  InstructorID   – instructor teaching the class, if any.
type ClassSession struct {
	ID             uint64    `json:"class_id"`
	Date           time.Time `json:"-"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Location       string    `json:"location"`
	Capacity       int       `json:"capacity"`
	SeatsAvailable int       `json:"seats_available"`
	InstructorID   *uint64   `json:"instructor_id,omitempty"`
}

// Booked returns how many seats are currently taken.
func (c ClassSession) Booked() int { return c.Capacity - c.SeatsAvailable }

// Training is a style of practice (Vinyasa, Yin, ...) that classes include.
type Training struct {
	ID             uint64 `json:"training_id"`
	Name           string `json:"training_name"`
	Description    string `json:"description,omitempty"`
	Duration       int    `json:"duration"`
	IntensityLevel string `json:"intensity_level,omitempty"`
}

// ClassDetail is a class joined with its instructor name and trainings, as
// shown in listings.
type ClassDetail struct {
	ClassSession
	InstructorName string     `json:"instructor_name,omitempty"`
	Trainings      []Training `json:"trainings"`
}

// ClassBooking is one row of a student's booking list.
type ClassBooking struct {
	ClassSession
	BookedAt time.Time `json:"booked_at"`
}
