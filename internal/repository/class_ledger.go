package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

// ClassLedger owns seats_available for every class and the set of active
// bookings.  Both are only mutated through ReserveTx and ReleaseTx, which
// keep seats_available equal to capacity minus the number of bookings.
//
// The Tx methods never begin, commit or roll back; the caller owns the
// transaction.  Every non-OK outcome leaves the database untouched as long
// as the caller discards the transaction, which the booking service does.
type ClassLedger struct {
	db  *database.DB
	now func() time.Time
}

// NewClassLedger constructs a ClassLedger over db.
func NewClassLedger(db *database.DB) *ClassLedger {
	return &ClassLedger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// lockClass reads the class counters and, on MySQL and Postgres, keeps the
// row locked until tx ends.  This lock is what serializes concurrent
// reservations for the same class; different classes never contend.
func (l *ClassLedger) lockClass(ctx context.Context, tx *sql.Tx, classID uint64) (capacity, seats int, err error) {
	q := l.db.Rebind(l.db.Dialect.ForUpdate(
		`SELECT capacity, seats_available FROM classes WHERE class_id = ?`))
	err = tx.QueryRowContext(ctx, q, classID).Scan(&capacity, &seats)
	return capacity, seats, err
}

// ReserveTx books one seat in classID for userID inside tx.
//
// Checks run in a fixed order once the class row is locked: the class must
// exist, the student must not already hold a booking, and a seat must be
// free.  The returned code is one of OK, ALREADY_BOOKED, CLASS_FULL or
// CLASS_NOT_FOUND.  Driver failures come back as errors.
func (l *ClassLedger) ReserveTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error) {
	_, seats, err := l.lockClass(ctx, tx, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CodeClassNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("lock class %d: %w", classID, err)
	}

	booked, err := l.bookedTx(ctx, tx, userID, classID)
	if err != nil {
		return "", err
	}
	if booked {
		return model.CodeAlreadyBooked, nil
	}
	if seats <= 0 {
		return model.CodeClassFull, nil
	}

	// seats_available > 0 keeps the counter from going negative
	res, err := tx.ExecContext(ctx, l.db.Rebind(
		`UPDATE classes SET seats_available = seats_available - 1 WHERE class_id = ? AND seats_available > 0`),
		classID)
	if err != nil {
		return "", fmt.Errorf("decrement seats: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.CodeClassFull, nil
	}

	_, err = tx.ExecContext(ctx, l.db.Rebind(
		`INSERT INTO class_bookings (user_id, class_id, booked_at) VALUES (?, ?, ?)`),
		userID, classID, l.now())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.CodeAlreadyBooked, nil
		}
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return model.CodeOK, nil
}

// ReleaseTx cancels userID's booking in classID inside tx and returns the
// seat.  The returned code is one of OK, NOT_BOOKED or CLASS_NOT_FOUND.
func (l *ClassLedger) ReleaseTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (model.BookingCode, error) {
	_, _, err := l.lockClass(ctx, tx, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CodeClassNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("lock class %d: %w", classID, err)
	}

	res, err := tx.ExecContext(ctx, l.db.Rebind(
		`DELETE FROM class_bookings WHERE user_id = ? AND class_id = ?`), userID, classID)
	if err != nil {
		return "", fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.CodeNotBooked, nil
	}

	// capped at capacity
	if _, err := tx.ExecContext(ctx, l.db.Rebind(
		`UPDATE classes SET seats_available = seats_available + 1 WHERE class_id = ? AND seats_available < capacity`),
		classID); err != nil {
		return "", fmt.Errorf("increment seats: %w", err)
	}
	return model.CodeOK, nil
}

func (l *ClassLedger) bookedTx(ctx context.Context, tx *sql.Tx, userID, classID uint64) (bool, error) {
	q := l.db.Rebind(l.db.Dialect.ForUpdate(
		`SELECT 1 FROM class_bookings WHERE user_id = ? AND class_id = ?`))
	var one int
	err := tx.QueryRowContext(ctx, q, userID, classID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check booking: %w", err)
	}
	return true, nil
}

// Get returns the committed state of one class, or ErrNotFound.
func (l *ClassLedger) Get(ctx context.Context, classID uint64) (*model.ClassSession, error) {
	const q = `SELECT class_id, date, start_time, end_time, location, capacity, seats_available, instructor_id
               FROM classes WHERE class_id = ?`
	c, err := scanClass(l.db.QueryRowContext(ctx, l.db.Rebind(q), classID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ActiveBookings lists the students holding a seat in classID, ordered by
// user id.
func (l *ClassLedger) ActiveBookings(ctx context.Context, classID uint64) ([]uint64, error) {
	rows, err := l.db.QueryContext(ctx, l.db.Rebind(
		`SELECT user_id FROM class_bookings WHERE class_id = ? ORDER BY user_id`), classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*model.ClassSession, error) {
	var (
		c          model.ClassSession
		instructor sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Date, &c.StartTime, &c.EndTime, &c.Location,
		&c.Capacity, &c.SeatsAvailable, &instructor); err != nil {
		return nil, err
	}
	if instructor.Valid {
		id := uint64(instructor.Int64)
		c.InstructorID = &id
	}
	return &c, nil
}
