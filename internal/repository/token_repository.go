package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
// A token belongs to a subject (users.user_id or instructors.instructor_id)
// qualified by its role.
type TokenRepo struct{ DB *database.DB }

func NewTokenRepo(db *database.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, subjectID uint64, role, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"INSERT INTO refresh_tokens (subject_id, role, token_hash, expires_at) VALUES (?,?,?,?)"),
		subjectID, role, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the subject and role if a non-revoked, non-expired
// token exists.  Unknown, revoked and expired tokens all yield sql.ErrNoRows.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, string, error) {
	var (
		subjectID uint64
		role      string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, r.DB.Rebind(
		"SELECT subject_id, role, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?"),
		tokenHash).Scan(&subjectID, &role, &expiresAt, &revokedAt)
	if err != nil {
		return 0, "", err
	}
	if revokedAt.Valid {
		return 0, "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, "", sql.ErrNoRows
	}
	return subjectID, role, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL"),
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForSubject revokes all active tokens of one account.
func (r *TokenRepo) RevokeAllForSubject(ctx context.Context, subjectID uint64, role string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(
		"UPDATE refresh_tokens SET revoked_at=? WHERE subject_id=? AND role=? AND revoked_at IS NULL"),
		time.Now().UTC(), subjectID, role)
	return err
}
