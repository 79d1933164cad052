// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current caller may not
// perform an operation on a resource, while ErrConflict signals that an
// operation cannot proceed because of existing state.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// they are not allowed to perform. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state, such as scheduling a class with unknown
// trainings. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an account with the same email (or
// username) is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyRegistered is returned when a student signs up for an event
// twice.
var ErrAlreadyRegistered = errors.New("already registered")
