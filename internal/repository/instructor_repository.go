package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/utils"
)

// InstructorRepo persists instructor accounts.  Instructors have their own
// table and id space; they never hold bookings.
type InstructorRepo struct{ DB *database.DB }

func NewInstructorRepo(db *database.DB) *InstructorRepo { return &InstructorRepo{DB: db} }

// NewInstructor carries the registration fields for an instructor.
type NewInstructor struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Biography string
}

// Create hashes the password, inserts the instructor and returns its ID.
func (r *InstructorRepo) Create(ctx context.Context, in NewInstructor, cost int) (uint64, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	id, err := r.DB.Dialect.InsertID(ctx, r.DB,
		"INSERT INTO instructors (email, password_hash, first_name, last_name, biography) VALUES (?,?,?,?,?)", "instructor_id",
		normalizeEmail(in.Email), hash, in.FirstName, in.LastName, in.Biography)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return id, nil
}

const instructorCols = "instructor_id,email,password_hash,first_name,last_name,biography,created_at"

// GetByEmail fetches an instructor by normalized email.
func (r *InstructorRepo) GetByEmail(ctx context.Context, email string) (model.Instructor, error) {
	return r.getOne(ctx, "SELECT "+instructorCols+" FROM instructors WHERE email=?", normalizeEmail(email))
}

// GetByID fetches an instructor by id.
func (r *InstructorRepo) GetByID(ctx context.Context, id uint64) (model.Instructor, error) {
	return r.getOne(ctx, "SELECT "+instructorCols+" FROM instructors WHERE instructor_id=?", id)
}

func (r *InstructorRepo) getOne(ctx context.Context, q string, arg any) (model.Instructor, error) {
	var (
		in  model.Instructor
		bio sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, r.DB.Rebind(q), arg).
		Scan(&in.ID, &in.Email, &in.PasswordHash, &in.FirstName, &in.LastName, &bio, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return in, ErrNotFound
	}
	in.Biography = bio.String
	return in, err
}
