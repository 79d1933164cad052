package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

// DateLayout is the wire and storage format of class and event dates.
const DateLayout = "2006-01-02"

// ClassRepo manages persistence for scheduled classes and trainings.
// Seat counters are not touched here after creation; see ClassLedger.
type ClassRepo struct {
	db *database.DB
}

// NewClassRepo constructs a ClassRepo with the given DB handle.
func NewClassRepo(db *database.DB) *ClassRepo {
	return &ClassRepo{db: db}
}

// NewClass carries the fields of a class being scheduled.
type NewClass struct {
	Date         time.Time
	StartTime    string
	EndTime      string
	Location     string
	Capacity     int
	InstructorID *uint64
	TrainingIDs  []uint64
}

// Create schedules a class with every seat free and links its trainings
// in one transaction.  Unknown training ids yield ErrConflict and nothing
// is written.
func (r *ClassRepo) Create(ctx context.Context, in NewClass) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	id, err := r.CreateTx(ctx, tx, in)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// CreateTx inserts a class using the provided transaction instead of the
// repository's DB handle.  The caller must commit or roll back.
func (r *ClassRepo) CreateTx(ctx context.Context, tx *sql.Tx, in NewClass) (uint64, error) {
	ids := dedupe(in.TrainingIDs)
	if len(ids) > 0 {
		q := `SELECT COUNT(*) FROM trainings WHERE training_id IN (` + placeholders(len(ids)) + `)`
		var n int
		if err := tx.QueryRowContext(ctx, r.db.Rebind(q), anySlice(ids)...).Scan(&n); err != nil {
			return 0, err
		}
		if n != len(ids) {
			return 0, ErrConflict
		}
	}

	var instructor any
	if in.InstructorID != nil {
		instructor = *in.InstructorID
	}
	id, err := r.db.Dialect.InsertID(ctx, tx,
		`INSERT INTO classes (date, start_time, end_time, location, capacity, seats_available, instructor_id)
         VALUES (?, ?, ?, ?, ?, ?, ?)`, "class_id",
		in.Date.Format(DateLayout), in.StartTime, in.EndTime, in.Location, in.Capacity, in.Capacity, instructor)
	if err != nil {
		return 0, err
	}
	for _, tid := range ids {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(
			`INSERT INTO class_trainings (class_id, training_id) VALUES (?, ?)`), id, tid); err != nil {
			return 0, err
		}
	}
	return id, nil
}

const classDetailSelect = `SELECT c.class_id, c.date, c.start_time, c.end_time, c.location, c.capacity, c.seats_available, c.instructor_id,
       COALESCE(i.first_name, ''), COALESCE(i.last_name, '')
  FROM classes c
  LEFT JOIN instructors i ON i.instructor_id = c.instructor_id`

// ListUpcoming returns classes dated on or after from, ordered by date and
// start time, each with its trainings.
func (r *ClassRepo) ListUpcoming(ctx context.Context, from time.Time) ([]model.ClassDetail, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(classDetailSelect+`
 WHERE c.date >= ?
 ORDER BY c.date, c.start_time, c.class_id`), from.Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.ClassDetail{}
	for rows.Next() {
		d, err := scanClassDetail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTrainings(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetByID retrieves one class with its trainings, or ErrNotFound.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.ClassDetail, error) {
	d, err := scanClassDetail(r.db.QueryRowContext(ctx, r.db.Rebind(classDetailSelect+` WHERE c.class_id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	list := []model.ClassDetail{*d}
	if err := r.attachTrainings(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListBookingsByUser returns the classes userID currently holds a seat in,
// soonest first.
func (r *ClassRepo) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.ClassBooking, error) {
	const q = `SELECT c.class_id, c.date, c.start_time, c.end_time, c.location, c.capacity, c.seats_available, c.instructor_id, b.booked_at
               FROM class_bookings b
               JOIN classes c ON c.class_id = b.class_id
               WHERE b.user_id = ?
               ORDER BY c.date, c.start_time, c.class_id`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.ClassBooking{}
	for rows.Next() {
		var (
			b          model.ClassBooking
			instructor sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Date, &b.StartTime, &b.EndTime, &b.Location,
			&b.Capacity, &b.SeatsAvailable, &instructor, &b.BookedAt); err != nil {
			return nil, err
		}
		if instructor.Valid {
			id := uint64(instructor.Int64)
			b.InstructorID = &id
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// CreateTraining inserts a training style and returns its id.  A duplicate
// name yields ErrConflict.
func (r *ClassRepo) CreateTraining(ctx context.Context, t model.Training) (uint64, error) {
	id, err := r.db.Dialect.InsertID(ctx, r.db,
		`INSERT INTO trainings (training_name, description, duration, intensity_level) VALUES (?, ?, ?, ?)`, "training_id",
		t.Name, t.Description, t.Duration, t.IntensityLevel)
	if database.IsUniqueViolation(err) {
		return 0, ErrConflict
	}
	return id, err
}

// ListTrainings returns every training ordered by name.
func (r *ClassRepo) ListTrainings(ctx context.Context) ([]model.Training, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT training_id, training_name, COALESCE(description, ''), duration, intensity_level FROM trainings ORDER BY training_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.Training{}
	for rows.Next() {
		var t model.Training
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Duration, &t.IntensityLevel); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// attachTrainings fills Trainings for every class in list with one query.
func (r *ClassRepo) attachTrainings(ctx context.Context, list []model.ClassDetail) error {
	if len(list) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(list))
	ids := make([]uint64, 0, len(list))
	for i := range list {
		list[i].Trainings = []model.Training{}
		idx[list[i].ID] = i
		ids = append(ids, list[i].ID)
	}
	q := `SELECT ct.class_id, t.training_id, t.training_name, COALESCE(t.description, ''), t.duration, t.intensity_level
            FROM class_trainings ct
            JOIN trainings t ON t.training_id = ct.training_id
           WHERE ct.class_id IN (` + placeholders(len(ids)) + `)
           ORDER BY ct.class_id, t.training_name`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), anySlice(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			classID uint64
			t       model.Training
		)
		if err := rows.Scan(&classID, &t.ID, &t.Name, &t.Description, &t.Duration, &t.IntensityLevel); err != nil {
			return err
		}
		if i, ok := idx[classID]; ok {
			list[i].Trainings = append(list[i].Trainings, t)
		}
	}
	return rows.Err()
}

func scanClassDetail(row rowScanner) (*model.ClassDetail, error) {
	var (
		d          model.ClassDetail
		instructor sql.NullInt64
		first      string
		last       string
	)
	if err := row.Scan(&d.ID, &d.Date, &d.StartTime, &d.EndTime, &d.Location,
		&d.Capacity, &d.SeatsAvailable, &instructor, &first, &last); err != nil {
		return nil, err
	}
	if instructor.Valid {
		id := uint64(instructor.Int64)
		d.InstructorID = &id
	}
	d.InstructorName = strings.TrimSpace(first + " " + last)
	return &d, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
