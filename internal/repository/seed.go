package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/utils"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// SeedResult reports the ids of the seeded rows.
type SeedResult struct {
	Ana, Bojan, Ciro uint64
	Instructor       uint64
	Class            uint64
}

// SeedDemo inserts the small demo data set used for local runs: three
// students, one instructor, two trainings, one capacity-2 class tomorrow
// and two purchases for the spend report.  Rows are matched on their
// natural keys so running it twice changes nothing.
func SeedDemo(ctx context.Context, db *database.DB, now time.Time, cost int) (SeedResult, error) {
	var out SeedResult
	hash, err := utils.HashPassword(DemoPassword, cost)
	if err != nil {
		return out, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s := seeder{ctx: ctx, tx: tx, db: db}
	students := []struct {
		dst                     *uint64
		username, first, last string
	}{
		{&out.Ana, "ana", "Ana", "A"},
		{&out.Bojan, "bojan", "Bojan", "B"},
		{&out.Ciro, "ciro", "Ciro", "C"},
	}
	for _, st := range students {
		*st.dst = s.ensure("user_id",
			`SELECT user_id FROM users WHERE username = ?`, []any{st.username},
			`INSERT INTO users (username, email, password_hash, first_name, last_name) VALUES (?, ?, ?, ?, ?)`,
			st.username, st.username+"@example.com", hash, st.first, st.last)
	}
	out.Instructor = s.ensure("instructor_id",
		`SELECT instructor_id FROM instructors WHERE email = ?`, []any{"guru@bliss.com"},
		`INSERT INTO instructors (email, password_hash, first_name, last_name, biography) VALUES (?, ?, ?, ?, ?)`,
		"guru@bliss.com", hash, "Guru", "G", "Yoga master")

	vinyasa := s.ensure("training_id",
		`SELECT training_id FROM trainings WHERE training_name = ?`, []any{"Vinyasa"},
		`INSERT INTO trainings (training_name, description, duration, intensity_level) VALUES (?, ?, ?, ?)`,
		"Vinyasa", "Flow", 60, "Medium")
	yin := s.ensure("training_id",
		`SELECT training_id FROM trainings WHERE training_name = ?`, []any{"Yin"},
		`INSERT INTO trainings (training_name, description, duration, intensity_level) VALUES (?, ?, ?, ?)`,
		"Yin", "Slow", 75, "Low")

	tomorrow := now.UTC().AddDate(0, 0, 1).Format(DateLayout)
	out.Class = s.ensure("class_id",
		`SELECT class_id FROM classes WHERE date = ? AND start_time = ? AND location = ?`,
		[]any{tomorrow, "18:00", "Studio A"},
		`INSERT INTO classes (date, start_time, end_time, location, capacity, seats_available, instructor_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tomorrow, "18:00", "19:00", "Studio A", 2, 2, out.Instructor)
	for _, tid := range []uint64{vinyasa, yin} {
		s.link(`SELECT 1 FROM class_trainings WHERE class_id = ? AND training_id = ?`,
			`INSERT INTO class_trainings (class_id, training_id) VALUES (?, ?)`, out.Class, tid)
	}

	pkg := s.ensure("package_id",
		`SELECT package_id FROM packages WHERE package_name = ?`, []any{"5-Class Pass"},
		`INSERT INTO packages (package_name, price, num_classes) VALUES (?, ?, ?)`,
		"5-Class Pass", "50.00", 5)
	mat := s.ensure("merch_id",
		`SELECT merch_id FROM merch_items WHERE item_name = ?`, []any{"Yoga Mat"},
		`INSERT INTO merch_items (item_name, price) VALUES (?, ?)`,
		"Yoga Mat", "30.00")

	purchased := now.UTC()
	s.link(`SELECT 1 FROM user_packages WHERE user_id = ? AND package_id = ?`,
		`INSERT INTO user_packages (user_id, package_id, purchased_at) VALUES (?, ?, ?)`, out.Ana, pkg, purchased)
	s.link(`SELECT 1 FROM user_merch WHERE user_id = ? AND merch_id = ?`,
		`INSERT INTO user_merch (user_id, merch_id, purchased_at) VALUES (?, ?, ?)`, out.Bojan, mat, purchased)

	if s.err != nil {
		return out, s.err
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}
	committed = true
	return out, nil
}

// seeder threads the first error through a sequence of idempotent inserts.
type seeder struct {
	ctx context.Context
	tx  *sql.Tx
	db  *database.DB
	err error
}

// ensure returns the id selected by lookup, inserting the row first when
// lookup finds nothing.
func (s *seeder) ensure(idCol, lookup string, keys []any, insert string, args ...any) uint64 {
	if s.err != nil {
		return 0
	}
	var id uint64
	err := s.tx.QueryRowContext(s.ctx, s.db.Rebind(lookup), keys...).Scan(&id)
	if err == nil {
		return id
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.err = fmt.Errorf("seed lookup: %w", err)
		return 0
	}
	id, err = s.db.Dialect.InsertID(s.ctx, s.tx, insert, idCol, args...)
	if err != nil {
		s.err = fmt.Errorf("seed insert: %w", err)
	}
	return id
}

// link inserts a join row unless it exists.  The first two args are the
// key used by exists.
func (s *seeder) link(exists, insert string, args ...any) {
	if s.err != nil {
		return
	}
	var one int
	err := s.tx.QueryRowContext(s.ctx, s.db.Rebind(exists), args[:2]...).Scan(&one)
	if err == nil {
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.err = fmt.Errorf("seed lookup: %w", err)
		return
	}
	if _, err := s.tx.ExecContext(s.ctx, s.db.Rebind(insert), args...); err != nil {
		s.err = fmt.Errorf("seed insert: %w", err)
	}
}
