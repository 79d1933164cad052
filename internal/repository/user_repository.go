package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/utils"
)

// UserRepo persists student accounts.
type UserRepo struct{ DB *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the registration fields for a student.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Create hashes the password, inserts the user and returns its ID.
// A taken email or username yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u NewUser, cost int) (uint64, error) {
	hash, err := utils.HashPassword(u.Password, cost)
	if err != nil {
		return 0, err
	}
	id, err := r.DB.Dialect.InsertID(ctx, r.DB,
		"INSERT INTO users (username, email, password_hash, first_name, last_name) VALUES (?,?,?,?,?)", "user_id",
		strings.TrimSpace(u.Username), normalizeEmail(u.Email), hash, u.FirstName, u.LastName)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return id, nil
}

const userCols = "user_id,username,email,password_hash,first_name,last_name,created_at"

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE email=?", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE user_id=?", id)
}

// GetByUsername fetches a user by login handle.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE username=?", strings.TrimSpace(username))
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, r.DB.Rebind(q), arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
