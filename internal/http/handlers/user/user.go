// Package user contains all HTTP handlers related to the User resource:
// signup, login, change-password, list, update, and delete.
//
// HANDLER PATTERN — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a database or the
// upload store. To inject dependencies we use a factory function that
// accepts them and returns a function with the exact signature the router
// needs. The inner function "closes over" the outer parameters:
//
//	router.Handle("POST /user-signup", user.Signup(storage, files))
//	//                                 ^^^^^^^^^^^^^^^^^^^^^^^^^^
//	//                  Signup(...) is called ONCE at startup. It returns
//	//                  a handler func called on EVERY incoming request.
package user

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/admin-api/internal/auth"
	"github.com/aanand-mishra/admin-api/internal/http/middleware"
	"github.com/aanand-mishra/admin-api/internal/storage"
	"github.com/aanand-mishra/admin-api/internal/types"
	"github.com/aanand-mishra/admin-api/internal/upload"
	"github.com/aanand-mishra/admin-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// maxUploadSize caps how much of a multipart body is buffered in memory;
// larger parts spill to temp files (net/http behaviour).
const maxUploadSize = 10 << 20 // 10 MiB

// ─────────────────────────────────────────────────────────────────────────────
// Signup handles POST /user-signup (public).
// Creates a new account from a multipart form.
//
// Form fields: name, username, contact, password, image (file, optional)
//
// Success response (200 OK):
//
//	{ "message": "User registered successfully" }
//
// Error responses:
//
//	400 Bad Request — malformed form, failed validation, or duplicate username
//	500 Internal    — hashing or database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Signup(st storage.Storage, files *upload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("registering a user")

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// ── Step 1: Bind and validate the text fields ─────────────────
		req := types.SignupRequest{
			Name:     r.FormValue("name"),
			Username: r.FormValue("username"),
			Contact:  r.FormValue("contact"),
			Password: r.FormValue("password"),
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		// ── Step 2: Friendly duplicate check ──────────────────────────
		// This pre-check exists for the error message only. Two
		// concurrent signups can both pass it — the UNIQUE constraint
		// inside the store is the actual safety net (see Step 5).
		_, err := st.GetUserByUsername(req.Username)
		if err == nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("User already exists")))
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		// ── Step 3: Optional profile image ────────────────────────────
		// A missing "image" part is fine: the record keeps an empty path.
		imagePath := ""
		if file, fh, err := r.FormFile("image"); err == nil {
			file.Close() // Save reopens via the header
			imagePath, err = files.Save(upload.UserDir, fh)
			if err != nil {
				slog.Error("error saving user image", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError,
					response.GeneralError(err))
				return
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// ── Step 4: Hash the password ─────────────────────────────────
		// Only the hash ever reaches the store.
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		// ── Step 5: Persist ───────────────────────────────────────────
		id, err := st.CreateUser(types.User{
			Name:     req.Name,
			Username: req.Username,
			Contact:  req.Contact,
			Password: hash,
			Image:    imagePath,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			// Lost the race against a concurrent signup for the same
			// username — same client-visible outcome as the pre-check.
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("User already exists")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("user registered", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK,
			map[string]string{"message": "User registered successfully"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Login handles POST /user-login (public).
//
// Request body (JSON):
//
//	{ "username": "a1", "password": "p" }
//
// Success response (200 OK) — a bearer token plus the account projection
// (the password hash is never serialized):
//
//	{ "token": "<jwt>", "user": { "id": 1, "name": "A", ... } }
//
// Error responses:
//
//	401 Unauthorized — unknown username ("User not found") or wrong
//	                   password ("Invalid credentials")
//	500 Internal     — database or signing error
//
// ─────────────────────────────────────────────────────────────────────────────
func Login(st storage.Storage, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("logging in a user")

		var req types.LoginRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		user, err := st.GetUserByUsername(req.Username)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusUnauthorized,
				response.GeneralError(errors.New("User not found")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		// Generic message on mismatch — never reveal which part was wrong
		// beyond "the credentials did not match".
		if !auth.VerifyPassword(req.Password, user.Password) {
			response.WriteJSON(w, http.StatusUnauthorized,
				response.GeneralError(errors.New("Invalid credentials")))
			return
		}

		token, err := tokens.Sign(user.ID, user.Username)
		if err != nil {
			slog.Error("error signing token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("user logged in", slog.Int64("id", user.ID))
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ChangePassword handles POST /user-change-password (protected).
//
// The target account is the AUTHENTICATED one — taken from the verified
// token claims, not from the request payload, so a caller can only ever
// rotate their own password.
//
// Request body (JSON):
//
//	{ "oldPassword": "p", "newPassword": "q" }
//
// Error responses:
//
//	400 Bad Request — old password mismatch, or the account no longer exists
//	500 Internal    — hashing or database error
//
// ─────────────────────────────────────────────────────────────────────────────
func ChangePassword(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.GetClaims(r.Context())
		if claims == nil {
			// Only reachable if the route was wired without the auth gate.
			response.WriteJSON(w, http.StatusUnauthorized,
				response.GeneralError(errors.New("Token required")))
			return
		}

		slog.Info("changing password", slog.Int64("id", claims.UserID))

		var req types.ChangePasswordRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		user, err := st.GetUserByID(claims.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			// Account deleted after the token was issued.
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("User not found")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		if !auth.VerifyPassword(req.OldPassword, user.Password) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("Old password is incorrect")))
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		if err := st.UpdateUserPassword(user.ID, hash); err != nil {
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("password updated", slog.Int64("id", user.ID))
		response.WriteJSON(w, http.StatusOK,
			map[string]string{"message": "Password updated successfully"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /get-user-data (protected).
// Returns a JSON array of all users, newest first.
//
// Returns an empty array [] (not null) when there are no users.
// Password hashes never appear in the output (json:"-" on the model).
// ─────────────────────────────────────────────────────────────────────────────
func GetList(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all users")

		users, err := st.GetUsers()
		if err != nil {
			slog.Error("error getting users", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, users)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /update-user-data/{id} (protected).
// Full-field overwrite of name, username and contact from a multipart
// form. If a new "image" file is uploaded it replaces the stored path;
// otherwise the previous image is kept.
//
// Error responses:
//
//	400 Bad Request — invalid id, failed validation, or username taken
//	404 Not Found   — unknown id ("User not found")
//	500 Internal    — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(st storage.Storage, files *upload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a user", slog.String("id", id))

		intID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid id: must be an integer")))
			return
		}

		// Confirm the record exists (and grab the current image path)
		// before touching the filesystem — no orphaned upload for a 404.
		existing, err := st.GetUserByID(intID)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound,
				response.GeneralError(errors.New("User not found")))
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

		req := types.UserUpdateRequest{
			Name:     r.FormValue("name"),
			Username: r.FormValue("username"),
			Contact:  r.FormValue("contact"),
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		// New file replaces the stored path; no file keeps it untouched.
		imagePath := existing.Image
		if file, fh, err := r.FormFile("image"); err == nil {
			file.Close()
			imagePath, err = files.Save(upload.UserDir, fh)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError,
					response.GeneralError(err))
				return
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := st.UpdateUserByID(intID, types.User{
			Name:     req.Name,
			Username: req.Username,
			Contact:  req.Contact,
			Image:    imagePath,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("User already exists")))
			return
		}
		if err != nil {
			slog.Error("error updating user",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("user updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /delete-user-data/{id} (protected).
// Removal is idempotent by id: deleting an id that never existed (or was
// already deleted) still answers 204. The response is bodyless.
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
		slog.Info("deleting a user", slog.String("id", id))

		intID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("invalid id: must be an integer")))
			return
		}

		if err := st.DeleteUserByID(intID); err != nil {
			slog.Error("error deleting user",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("user deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
