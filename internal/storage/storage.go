// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for unit tests.
package storage

import (
	"errors"

	"github.com/aanand-mishra/admin-api/internal/types"
)

// Sentinel errors returned by every Storage implementation. Handlers
// check them with errors.Is to pick the right HTTP status:
//
//	ErrNotFound  → 404 (or 401 for login lookups)
//	ErrDuplicate → 400 (uniqueness key already taken)
//
// Anything else is an internal error → 500.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate unique key")
)

// Storage is the database contract for both collections.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface — Go does this implicitly.
//
// Uniqueness (username for users, email for students) MUST be enforced
// by the implementation itself, not by callers: concurrent creates can
// both pass a handler-level existence pre-check, and the store constraint
// is the actual safety net.
type Storage interface {
	// CreateUser inserts a new user and returns the auto-generated
	// primary-key ID. The creation timestamp is assigned by the store.
	// Returns ErrDuplicate if the username is already taken.
	CreateUser(user types.User) (int64, error)

	// GetUserByID fetches a single user by primary key.
	// Returns ErrNotFound if no row matches.
	GetUserByID(id int64) (types.User, error)

	// GetUserByUsername fetches a single user by their unique username.
	// Returns ErrNotFound if no row matches.
	GetUserByUsername(username string) (types.User, error)

	// GetUsers returns every user, newest first (id descending).
	// Returns an empty slice (not nil) if there are no users.
	GetUsers() ([]types.User, error)

	// UpdateUserByID overwrites name, username, contact and image.
	// The password hash and creation timestamp are never touched here.
	// Returns the updated record, ErrNotFound, or ErrDuplicate if the
	// new username collides with another account.
	UpdateUserByID(id int64, user types.User) (types.User, error)

	// UpdateUserPassword replaces the stored password hash.
	UpdateUserPassword(id int64, passwordHash string) error

	// DeleteUserByID removes a user permanently. Deleting an id that
	// does not exist is not an error — the operation is idempotent.
	DeleteUserByID(id int64) error

	// CreateStudent inserts a new student and returns the auto-generated
	// primary-key ID. Returns ErrDuplicate if the email is already taken.
	CreateStudent(student types.Student) (int64, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound if no row matches.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudentByEmail fetches a single student by their unique email.
	// Returns ErrNotFound if no row matches.
	GetStudentByEmail(email string) (types.Student, error)

	// GetStudents returns every student, newest first (id descending).
	// Returns an empty slice (not nil) if there are no students.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID overwrites all student fields except the creation
	// timestamp. Returns the updated record, ErrNotFound, or ErrDuplicate.
	UpdateStudentByID(id int64, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student permanently. Idempotent, like
	// DeleteUserByID.
	DeleteStudentByID(id int64) error
}
