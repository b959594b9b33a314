// Package student contains all HTTP handlers related to the Student
// resource. Same closure/factory pattern as the user package: each
// function receives its dependencies once at startup and returns the
// http.HandlerFunc the router calls per request.
package student

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/admin-api/internal/storage"
	"github.com/aanand-mishra/admin-api/internal/types"
	"github.com/aanand-mishra/admin-api/internal/upload"
	"github.com/aanand-mishra/admin-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const maxUploadSize = 10 << 20 // 10 MiB

// bindForm pulls the student text fields out of a parsed multipart form.
// Create and update accept the identical field set (full-field updates).
func bindForm(r *http.Request) types.StudentRequest {
	return types.StudentRequest{
		FirstName: r.FormValue("fname"),
		LastName:  r.FormValue("lname"),
		Email:     r.FormValue("email"),
		Mobile:    r.FormValue("mobile"),
		Gender:    r.FormValue("gender"),
		Status:    r.FormValue("status"),
		Location:  r.FormValue("location"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /Add-student (protected).
// Creates a new student from a multipart form.
//
// Form fields: fname, lname, email, mobile, gender, status, location,
// profile (file, REQUIRED — every student record carries a profile image).
//
// Success response (201 Created) — the persisted record:
//
//	{ "id": 1, "fname": "...", ..., "profile": "studpic/1717....jpg" }
//
// Error responses:
//
//	400 Bad Request — malformed form, failed validation, missing profile
//	                  image, or duplicate email
//	500 Internal    — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(st storage.Storage, files *upload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		req := bindForm(r)
		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		// Friendly duplicate check; the UNIQUE constraint in the store is
		// the real guard under concurrency (see the ErrDuplicate branch).
		_, err := st.GetStudentByEmail(req.Email)
		if err == nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("Student already exists")))
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		// The profile image is part of the student schema — a create
		// without one is a validation failure, not an empty path.
		file, fh, err := r.FormFile("profile")
		if errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("field Profile is required")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		file.Close() // Save reopens via the header

		profilePath, err := files.Save(upload.StudentDir, fh)
		if err != nil {
			slog.Error("error saving student profile", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		id, err := st.CreateStudent(types.Student{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Mobile:    req.Mobile,
			Gender:    req.Gender,
			Status:    req.Status,
			Location:  req.Location,
			Profile:   profilePath,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("Student already exists")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		// Echo the record as stored, server-assigned id and timestamp
		// included.
		created, err := st.GetStudentByID(id)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /get-student-data (protected).
// Returns a JSON array of all students, newest first.
//
// Returns an empty array [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := st.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /update-student-data/{id} (protected).
// Full-field overwrite from a multipart form. A new "profile" file
// replaces the stored image path; no file keeps the existing one.
//
// Error responses:
//
//	400 Bad Request — invalid id, failed validation, or email taken
//	404 Not Found   — unknown id ("Student not found")
//	500 Internal    — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(st storage.Storage, files *upload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		intID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid id: must be an integer")))
			return
		}

		// Existence check first, so a 404 never leaves a file behind.
		existing, err := st.GetStudentByID(intID)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.GeneralError(errors.New("Student not found")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		req := bindForm(r)
		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		profilePath := existing.Profile
		if file, fh, err := r.FormFile("profile"); err == nil {
			file.Close()
			profilePath, err = files.Save(upload.StudentDir, fh)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError,
					response.GeneralError(err))
				return
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := st.UpdateStudentByID(intID, types.Student{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Mobile:    req.Mobile,
			Gender:    req.Gender,
			Status:    req.Status,
			Location:  req.Location,
			Profile:   profilePath,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("Student already exists")))
			return
		}
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /delete-student-data/{id} (protected).
// Idempotent by id; bodyless 204 whether or not the record existed.
//
// Error responses:
//
//	400 Bad Request — invalid id
//	500 Internal    — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		intID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid id: must be an integer")))
			return
		}

		if err := st.DeleteStudentByID(intID); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
