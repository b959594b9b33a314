// Package types holds all shared data structures (models and request
// payloads) used across the application. Keeping them in one place
// prevents import cycles — handlers, storage, and utils can all import
// types without depending on each other.
package types

import "time"

// User represents an administrator account.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON
//     (camelCase names match the REST API conventions).
//
//  2. The password column stores a bcrypt hash, never plaintext. The
//     json:"-" tag guarantees it is stripped from every response body —
//     login projections and list endpoints alike.
type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Contact     string    `json:"contact"`
	Password    string    `json:"-"`
	Image       string    `json:"image,omitempty"`
	CreatedDate time.Time `json:"createdDate"`
}

// Student represents a student profile. Students and users are
// independent collections — there is no relationship between them.
type Student struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"fname"`
	LastName    string    `json:"lname"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile"`
	Gender      string    `json:"gender"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Profile     string    `json:"profile"`
	CreatedDate time.Time `json:"createdDate"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Request payloads.
//
// validate:"..." rules are checked by the go-playground/validator package
// before any store interaction — the explicit validation schema for each
// entity. "required" means the field must be non-zero / non-empty.
// ─────────────────────────────────────────────────────────────────────────────

// SignupRequest carries the text fields of the multipart signup form.
// The optional image file travels separately as the "image" form file.
type SignupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Contact  string `json:"contact"  validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest carries the text fields of the multipart update form.
// All fields are required: updates are full-field overwrites.
type UserUpdateRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Contact  string `json:"contact"  validate:"required"`
}

// LoginRequest is the JSON body of POST /user-login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the JSON body of POST /user-change-password.
// The target account comes from the authenticated session token, not
// from the payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// StudentRequest carries the text fields of the multipart student form,
// shared by create and update. The profile image travels separately as
// the "profile" form file.
type StudentRequest struct {
	FirstName string `json:"fname"    validate:"required"`
	LastName  string `json:"lname"    validate:"required"`
	Email     string `json:"email"    validate:"required,email"`
	Mobile    string `json:"mobile"   validate:"required"`
	Gender    string `json:"gender"   validate:"required"`
	Status    string `json:"status"   validate:"required"`
	Location  string `json:"location" validate:"required"`
}
