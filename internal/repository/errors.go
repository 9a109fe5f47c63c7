// Package repository implements the persistence layer over database/sql.
// This file defines error values shared across repositories so that
// handlers can map failure scenarios to transport responses without
// inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpbreysse/svelteblog/internal/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and are not an admin for. Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registration collides with an existing
// email, whether caught by the pre-check or by the unique constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password so that login failures do not reveal which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrSlugExists is returned when a post's derived slug collides with another
// post's. Handlers translate this into an HTTP 409 response.
var ErrSlugExists = errors.New("slug already exists")

// ErrInvalidTransition is returned when an admin tries a status change the
// transition table does not allow (e.g. un-rejecting an account).
var ErrInvalidTransition = errors.New("invalid status transition")

// NotApprovedError is returned on login for accounts that exist but are not
// approved. Status lets the boundary tailor the pending vs rejected message.
type NotApprovedError struct {
	Status model.Status
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("account not approved: %s", e.Status)
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// either supported driver (sqlite3 or mysql error 1062).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "error 1062")
}
