package model

import "time"

// Token roles.  The "sub" claim of an access token is a users.user_id for
// RoleUser and an instructors.instructor_id for RoleInstructor.
const (
	RoleUser       = "user"
	RoleInstructor = "instructor"
)

// User represents a student account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login handle.
//  Email        – unique email address (lower-cased).
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.user_id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	CreatedAt    time.Time // users.created_at
}

// Instructor represents a row in the `instructors` table.  Instructors
// log in separately from students and may schedule classes.
type Instructor struct {
	ID           uint64    // instructors.instructor_id
	Email        string    // instructors.email
	PasswordHash string    // instructors.password_hash
	FirstName    string    // instructors.first_name
	LastName     string    // instructors.last_name
	Biography    string    // instructors.biography
	CreatedAt    time.Time // instructors.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.  SubjectID is interpreted
// according to Role.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	SubjectID uint64     // refresh_tokens.subject_id
	Role      string     // refresh_tokens.role
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
