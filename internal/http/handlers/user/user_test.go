package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/admin-api/internal/auth"
	"github.com/aanand-mishra/admin-api/internal/config"
	"github.com/aanand-mishra/admin-api/internal/http/middleware"
	"github.com/aanand-mishra/admin-api/internal/storage"
	"github.com/aanand-mishra/admin-api/internal/storage/sqlite"
	"github.com/aanand-mishra/admin-api/internal/types"
	"github.com/aanand-mishra/admin-api/internal/upload"
)

const testSecret = "test-secret"

func newTestEnv(t *testing.T) (storage.Storage, *upload.Store) {
	t.Helper()

	dir := t.TempDir()

	st, err := sqlite.New(&config.Config{
		StoragePath: filepath.Join(dir, "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { st.Db.Close() })

	files, err := upload.New(dir)
	if err != nil {
		t.Fatalf("failed to create upload dirs: %v", err)
	}

	return st, files
}

// multipartBody builds a multipart form with the given text fields and,
// when fileField is non-empty, one small fake image part.
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("fake image bytes"))
	}
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func signupFields() map[string]string {
	return map[string]string{
		"name":     "A",
		"username": "a1",
		"contact":  "555",
		"password": "p",
	}
}

func doSignup(t *testing.T, st storage.Storage, files *upload.Store,
	fields map[string]string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()

	fileField := ""
	if withImage {
		fileField = "image"
	}
	body, contentType := multipartBody(t, fields, fileField, "me.jpg")

	req := httptest.NewRequest(http.MethodPost, "/user-signup", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	Signup(st, files)(w, req)
	return w
}

func TestSignup(t *testing.T) {
	st, files := newTestEnv(t)

	w := doSignup(t, st, files, signupFields(), false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// The stored credential must be a hash, never the plaintext.
	stored, err := st.GetUserByUsername("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Password == "p" {
		t.Error("password stored in plaintext")
	}
	if !auth.VerifyPassword("p", stored.Password) {
		t.Error("stored hash should verify against the original password")
	}
	if stored.Image != "" {
		t.Errorf("no image uploaded, expected empty path, got %q", stored.Image)
	}
}

func TestSignup_WithImage(t *testing.T) {
	st, files := newTestEnv(t)

	w := doSignup(t, st, files, signupFields(), true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := st.GetUserByUsername("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stored.Image, upload.UserDir+"/") {
		t.Errorf("expected image under %s/, got %q", upload.UserDir, stored.Image)
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	st, files := newTestEnv(t)

	if w := doSignup(t, st, files, signupFields(), false); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w := doSignup(t, st, files, signupFields(), false)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "User already exists") {
		t.Errorf("expected duplicate message, got %s", w.Body.String())
	}
}

func TestSignup_MissingFields(t *testing.T) {
	st, files := newTestEnv(t)

	fields := signupFields()
	delete(fields, "contact")

	w := doSignup(t, st, files, fields, false)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "field Contact is required") {
		t.Errorf("expected validation message, got %s", w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	st, files := newTestEnv(t)
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	doSignup(t, st, files, signupFields(), false)

	body := strings.NewReader(`{"username":"a1","password":"p"}`)
	req := httptest.NewRequest(http.MethodPost, "/user-login", body)
	w := httptest.NewRecorder()

	Login(st, tokens)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string     `json:"token"`
		User  types.User `json:"user"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.User.Username != "a1" {
		t.Errorf("expected user projection, got %+v", resp.User)
	}

	// The issued token must satisfy the auth gate.
	claims, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token should verify: %v", err)
	}
	if claims.Username != "a1" {
		t.Errorf("expected username claim 'a1', got %q", claims.Username)
	}
}

func TestLogin_NeverLeaksPasswordHash(t *testing.T) {
	st, files := newTestEnv(t)
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	doSignup(t, st, files, signupFields(), false)

	body := strings.NewReader(`{"username":"a1","password":"p"}`)
	req := httptest.NewRequest(http.MethodPost, "/user-login", body)
	w := httptest.NewRecorder()

	Login(st, tokens)(w, req)

	if strings.Contains(w.Body.String(), "$2a$") ||
		strings.Contains(w.Body.String(), "$2b$") {
		t.Error("response body contains a bcrypt hash")
	}
}

func TestLogin_Failures(t *testing.T) {
	st, files := newTestEnv(t)
	tokens := auth.NewTokenManager(testSecret, auth.TokenTTL)

	doSignup(t, st, files, signupFields(), false)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"unknown user", `{"username":"ghost","password":"p"}`, "User not found"},
		{"wrong password", `{"username":"a1","password":"wrong"}`, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/user-login",
				strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			Login(st, tokens)(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.message) {
				t.Errorf("expected %q in body, got %s", tt.message, w.Body.String())
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	st, files := newTestEnv(t)

	doSignup(t, st, files, signupFields(), false)
	account, err := st.GetUserByUsername("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate a request that passed the auth gate.
	authed := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/user-change-password",
			strings.NewReader(body))
		ctx := middleware.SetClaims(context.Background(),
			&auth.Claims{UserID: account.ID, Username: account.Username})
		return req.WithContext(ctx)
	}

	// Wrong old password first.
	w := httptest.NewRecorder()
	ChangePassword(st)(w, authed(`{"oldPassword":"nope","newPassword":"q"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Old password is incorrect") {
		t.Errorf("expected mismatch message, got %s", w.Body.String())
	}

	// Correct old password.
	w = httptest.NewRecorder()
	ChangePassword(st)(w, authed(`{"oldPassword":"p","newPassword":"q"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := st.GetUserByID(account.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !auth.VerifyPassword("q", stored.Password) {
		t.Error("new password should verify after change")
	}
	if auth.VerifyPassword("p", stored.Password) {
		t.Error("old password should no longer verify")
	}
}

func TestChangePassword_NoClaims(t *testing.T) {
	st, _ := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/user-change-password",
		strings.NewReader(`{"oldPassword":"p","newPassword":"q"}`))
	w := httptest.NewRecorder()

	ChangePassword(st)(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestGetList_NewestFirst(t *testing.T) {
	st, files := newTestEnv(t)

	for _, name := range []string{"a1", "a2", "a3"} {
		fields := signupFields()
		fields["username"] = name
		if w := doSignup(t, st, files, fields, false); w.Code != http.StatusOK {
			t.Fatalf("signup %s failed: %d", name, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/get-user-data", nil)
	w := httptest.NewRecorder()

	GetList(st)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var users []types.User
	if err := json.NewDecoder(w.Body).Decode(&users); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[0].Username != "a3" {
		t.Errorf("newest signup should come first, got %q", users[0].Username)
	}
}

func TestUpdate(t *testing.T) {
	st, files := newTestEnv(t)

	doSignup(t, st, files, signupFields(), true)
	account, err := st.GetUserByUsername("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	originalImage := account.Image

	// Full-field update without a new file: image path is preserved.
	body, contentType := multipartBody(t, map[string]string{
		"name": "B", "username": "b1", "contact": "777",
	}, "", "")
	req := httptest.NewRequest(http.MethodPut, "/update-user-data/1", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	Update(st, files)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated types.User
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Name != "B" || updated.Username != "b1" || updated.Contact != "777" {
		t.Errorf("fields not overwritten: %+v", updated)
	}
	if updated.Image != originalImage {
		t.Errorf("image should be preserved, had %q got %q", originalImage, updated.Image)
	}

	// A new file replaces the stored path. The discriminator is a
	// millisecond timestamp, so step past the original upload's instant.
	time.Sleep(5 * time.Millisecond)

	body, contentType = multipartBody(t, map[string]string{
		"name": "B", "username": "b1", "contact": "777",
	}, "image", "new.png")
	req = httptest.NewRequest(http.MethodPut, "/update-user-data/1", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()

	Update(st, files)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Image == originalImage {
		t.Error("image should be replaced by the new upload")
	}
	if !strings.HasSuffix(updated.Image, ".png") {
		t.Errorf("expected new extension, got %q", updated.Image)
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	st, files := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"name": "B", "username": "b1", "contact": "777",
	}, "", "")
	req := httptest.NewRequest(http.MethodPut, "/update-user-data/9999", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "9999")
	w := httptest.NewRecorder()

	Update(st, files)(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "User not found") {
		t.Errorf("expected not-found message, got %s", w.Body.String())
	}
}

func TestDelete(t *testing.T) {
	st, files := newTestEnv(t)

	doSignup(t, st, files, signupFields(), false)

	req := httptest.NewRequest(http.MethodDelete, "/delete-user-data/1", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	Delete(st)(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("delete success should be bodyless")
	}
}

func TestDelete_UnknownIDStillNoContent(t *testing.T) {
	st, _ := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/delete-user-data/9999", nil)
	req.SetPathValue("id", "9999")
	w := httptest.NewRecorder()

	Delete(st)(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for unknown id, got %d", w.Code)
	}
}

func TestDelete_InvalidID(t *testing.T) {
	st, _ := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/delete-user-data/abc", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()

	Delete(st)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
