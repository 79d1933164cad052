package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

// EventRepo manages studio events and sign-ups.  Events have no capacity;
// the only rule is one registration per student and event.
type EventRepo struct {
	db *database.DB
}

func NewEventRepo(db *database.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts an event and returns its id.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (uint64, error) {
	return r.db.Dialect.InsertID(ctx, r.db,
		`INSERT INTO events (name, description, date, time, location) VALUES (?, ?, ?, ?, ?)`, "event_id",
		e.Name, e.Description, e.Date.Format(DateLayout), e.Time, e.Location)
}

// ListUpcoming returns events dated on or after from, ordered by date and
// time.
func (r *EventRepo) ListUpcoming(ctx context.Context, from time.Time) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		`SELECT event_id, name, COALESCE(description, ''), date, time, location
           FROM events WHERE date >= ? ORDER BY date, time, event_id`), from.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Time, &e.Location); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Register signs userID up for eventID.  It returns ErrNotFound for an
// unknown event and ErrAlreadyRegistered for a repeat sign-up.
func (r *EventRepo) Register(ctx context.Context, userID, eventID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT 1 FROM events WHERE event_id = ?`), eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO user_events (user_id, event_id, registered_at) VALUES (?, ?, ?)`),
		userID, eventID, time.Now().UTC())
	if database.IsUniqueViolation(err) {
		return ErrAlreadyRegistered
	}
	return err
}
