// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is fast enough for most projects and trivial to set up.
//
// The driver import below registers the sqlite3 driver with database/sql
// via its init() function; it is also used directly to recognise UNIQUE
// constraint violations so the store can report storage.ErrDuplicate.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aanand-mishra/admin-api/internal/config"
	"github.com/aanand-mishra/admin-api/internal/storage"
	"github.com/aanand-mishra/admin-api/internal/types"

	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at the path specified in cfg.StoragePath,
// creates the users and students tables if they do not already exist, and
// returns a ready-to-use *SQLite.
//
// The UNIQUE constraints on users.username and students.email are the
// authoritative enforcement of the uniqueness keys: two concurrent creates
// can both pass the handler's existence pre-check, but only one insert
// will succeed here.
func New(cfg *config.Config) (*SQLite, error) {
	// Make sure the parent directory exists (idempotent), so a fresh
	// checkout can start with storage_path: "storage/admin.db".
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create storage dir: %w", err)
		}
	}

	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	// The first actual connection happens on the first query.
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe to run on every
	// startup. If the table already exists nothing happens.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           INTEGER   PRIMARY KEY AUTOINCREMENT,
			name         TEXT      NOT NULL,
			username     TEXT      NOT NULL UNIQUE,
			contact      TEXT      NOT NULL,
			password     TEXT      NOT NULL,
			image        TEXT      NOT NULL DEFAULT '',
			created_date TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: create users table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id           INTEGER   PRIMARY KEY AUTOINCREMENT,
			fname        TEXT      NOT NULL,
			lname        TEXT      NOT NULL,
			email        TEXT      NOT NULL UNIQUE,
			mobile       TEXT      NOT NULL,
			gender       TEXT      NOT NULL,
			status       TEXT      NOT NULL,
			location     TEXT      NOT NULL,
			profile      TEXT      NOT NULL DEFAULT '',
			created_date TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: create students table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// asStorageErr translates driver-level errors into the package-neutral
// sentinels handlers know about. A UNIQUE constraint violation becomes
// storage.ErrDuplicate; everything else passes through unchanged.
func asStorageErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return storage.ErrDuplicate
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

// CreateUser inserts a new row into the users table. The creation
// timestamp is assigned here (UTC), never by the caller, so it is
// immutable for the lifetime of the record.
func (s *SQLite) CreateUser(user types.User) (int64, error) {
	stmt, err := s.Db.Prepare(`
		INSERT INTO users (name, username, contact, password, image, created_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: prepare: %w", err)
	}
	// defer ensures the statement is closed when this function returns,
	// even if we return early due to an error.
	defer stmt.Close()

	result, err := stmt.Exec(
		user.Name,
		user.Username,
		user.Contact,
		user.Password,
		user.Image,
		time.Now().UTC(),
	)
	if err != nil {
		if dupErr := asStorageErr(err); errors.Is(dupErr, storage.ErrDuplicate) {
			return 0, dupErr
		}
		return 0, fmt.Errorf("CreateUser: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser: last insert id: %w", err)
	}

	return lastID, nil
}

// GetUserByID fetches exactly one user row matched by primary key.
func (s *SQLite) GetUserByID(id int64) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, name, username, contact, password, image, created_date
		FROM users WHERE id = ? LIMIT 1
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	var user types.User

	// QueryRow returns exactly one row. If the query finds no match the
	// error surfaces only when we call Scan.
	err = stmt.QueryRow(id).Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Contact,
		&user.Password,
		&user.Image,
		&user.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, storage.ErrNotFound
		}
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}

	return user, nil
}

// GetUserByUsername fetches exactly one user row matched by the unique
// username. Login and the signup pre-check go through here.
func (s *SQLite) GetUserByUsername(username string) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, name, username, contact, password, image, created_date
		FROM users WHERE username = ? LIMIT 1
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByUsername: prepare: %w", err)
	}
	defer stmt.Close()

	var user types.User
	err = stmt.QueryRow(username).Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Contact,
		&user.Password,
		&user.Image,
		&user.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, storage.ErrNotFound
		}
		return types.User{}, fmt.Errorf("GetUserByUsername: scan: %w", err)
	}

	return user, nil
}

// GetUsers returns all user rows, most recently created first.
func (s *SQLite) GetUsers() ([]types.User, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, name, username, contact, password, image, created_date
		FROM users ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("GetUsers: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetUsers: query: %w", err)
	}
	defer rows.Close() // must close rows to free the DB connection

	// Pre-allocate an empty (non-nil) slice.
	// Returning [] instead of null in JSON is better API behaviour.
	users := make([]types.User, 0)

	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Username,
			&user.Contact,
			&user.Password,
			&user.Image,
			&user.CreatedDate,
		); err != nil {
			return nil, fmt.Errorf("GetUsers: scan row: %w", err)
		}
		users = append(users, user)
	}

	// rows.Err() captures any error that occurred during iteration.
	// This is separate from Scan errors.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetUsers: rows iteration: %w", err)
	}

	return users, nil
}

// UpdateUserByID replaces name, username, contact and image. The password
// hash and created_date columns are deliberately absent from the SET list.
func (s *SQLite) UpdateUserByID(id int64, user types.User) (types.User, error) {
	stmt, err := s.Db.Prepare(`
		UPDATE users SET name = ?, username = ?, contact = ?, image = ?
		WHERE id = ?
	`)
	if err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.Name, user.Username, user.Contact, user.Image, id)
	if err != nil {
		if dupErr := asStorageErr(err); errors.Is(dupErr, storage.ErrDuplicate) {
			return types.User{}, dupErr
		}
		return types.User{}, fmt.Errorf("UpdateUserByID: exec: %w", err)
	}

	// Re-fetch the record so we return exactly what is stored in the DB.
	return s.GetUserByID(id)
}

// UpdateUserPassword replaces the stored bcrypt hash for one account.
func (s *SQLite) UpdateUserPassword(id int64, passwordHash string) error {
	stmt, err := s.Db.Prepare("UPDATE users SET password = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("UpdateUserPassword: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(passwordHash, id); err != nil {
		return fmt.Errorf("UpdateUserPassword: exec: %w", err)
	}

	return nil
}

// DeleteUserByID removes a user row by primary key. No existence check:
// deleting an absent id succeeds, keeping the operation idempotent.
func (s *SQLite) DeleteUserByID(id int64) error {
	stmt, err := s.Db.Prepare("DELETE FROM users WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteUserByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id); err != nil {
		return fmt.Errorf("DeleteUserByID: exec: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

// CreateStudent inserts a new row into the students table. As with users,
// the creation timestamp is assigned here and never updated afterwards.
func (s *SQLite) CreateStudent(student types.Student) (int64, error) {
	stmt, err := s.Db.Prepare(`
		INSERT INTO students (fname, lname, email, mobile, gender, status, location, profile, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(
		student.FirstName,
		student.LastName,
		student.Email,
		student.Mobile,
		student.Gender,
		student.Status,
		student.Location,
		student.Profile,
		time.Now().UTC(),
	)
	if err != nil {
		if dupErr := asStorageErr(err); errors.Is(dupErr, storage.ErrDuplicate) {
			return 0, dupErr
		}
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, fname, lname, email, mobile, gender, status, location, profile, created_date
		FROM students WHERE id = ? LIMIT 1
	`)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRow(id).Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Mobile,
		&student.Gender,
		&student.Status,
		&student.Location,
		&student.Profile,
		&student.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudentByEmail fetches exactly one student row matched by the unique
// email, for the create handler's duplicate pre-check.
func (s *SQLite) GetStudentByEmail(email string) (types.Student, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, fname, lname, email, mobile, gender, status, location, profile, created_date
		FROM students WHERE email = ? LIMIT 1
	`)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRow(email).Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Mobile,
		&student.Gender,
		&student.Status,
		&student.Location,
		&student.Profile,
		&student.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByEmail: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all student rows, most recently created first.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	stmt, err := s.Db.Prepare(`
		SELECT id, fname, lname, email, mobile, gender, status, location, profile, created_date
		FROM students ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.FirstName,
			&student.LastName,
			&student.Email,
			&student.Mobile,
			&student.Gender,
			&student.Status,
			&student.Location,
			&student.Profile,
			&student.CreatedDate,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces all student fields except created_date.
func (s *SQLite) UpdateStudentByID(id int64, student types.Student) (types.Student, error) {
	stmt, err := s.Db.Prepare(`
		UPDATE students
		SET fname = ?, lname = ?, email = ?, mobile = ?, gender = ?, status = ?, location = ?, profile = ?
		WHERE id = ?
	`)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		student.FirstName,
		student.LastName,
		student.Email,
		student.Mobile,
		student.Gender,
		student.Status,
		student.Location,
		student.Profile,
		id,
	)
	if err != nil {
		if dupErr := asStorageErr(err); errors.Is(dupErr, storage.ErrDuplicate) {
			return types.Student{}, dupErr
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	return s.GetStudentByID(id)
}

// DeleteStudentByID removes a student row by primary key. Idempotent —
// see DeleteUserByID.
func (s *SQLite) DeleteStudentByID(id int64) error {
	stmt, err := s.Db.Prepare("DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(id); err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	return nil
}
