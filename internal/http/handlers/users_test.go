package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/collegeevents/internal/domain/user"
	"github.com/geocoder89/collegeevents/internal/http/handlers"
	"github.com/geocoder89/collegeevents/internal/security"
)

// fakeUserStore keeps a single user and applies update callbacks to a copy
// of it, the way the real stores do.
type fakeUserStore struct {
	current  user.User
	updateFn func(ctx context.Context, id string) error
	deleteFn func(ctx context.Context, id string) error
	deleted  []string
}

func (f *fakeUserStore) List(ctx context.Context) ([]user.User, error) {
	return []user.User{f.current}, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if id != f.current.ID {
		return user.User{}, user.ErrNotFound
	}
	return f.current, nil
}

func (f *fakeUserStore) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	return f.Update(ctx, id, func(u *user.User) error {
		u.Role = role
		return nil
	})
}

func (f *fakeUserStore) Update(ctx context.Context, id string, fn func(*user.User) error) (user.User, error) {
	if f.updateFn != nil {
		if err := f.updateFn(ctx, id); err != nil {
			return user.User{}, err
		}
	}
	if id != f.current.ID {
		return user.User{}, user.ErrNotFound
	}
	u := f.current
	if err := fn(&u); err != nil {
		return user.User{}, err
	}
	f.current = u
	return u, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		if err := f.deleteFn(ctx, id); err != nil {
			return err
		}
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newFakeUser(t *testing.T, password string) *fakeUserStore {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &fakeUserStore{current: user.User{
		ID:           "u1",
		Email:        "ada@college.test",
		PasswordHash: hash,
		Name:         "Ada",
		Role:         user.RoleStudent,
	}}
}

func sendJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateProfileHandler(t *testing.T) {
	store := newFakeUser(t, "correct-horse")
	h := handlers.NewProfileHandler(store)
	r := setupAuthedRouter(http.MethodPut, "/api/users/me", "u1", user.RoleStudent, h.UpdateProfile)

	w := sendJSON(r, http.MethodPut, "/api/users/me", `{"name":"  Ada Lovelace "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if store.current.Name != "Ada Lovelace" {
		t.Fatalf("name not trimmed/stored: %q", store.current.Name)
	}

	w = sendJSON(r, http.MethodPut, "/api/users/me", `{"name":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", w.Code)
	}
}

func TestUpdateEmailHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		updateFn       func(ctx context.Context, id string) error
		expectedStatus int
		expectedEmail  string
	}{
		{
			name:           "correct password changes email",
			body:           `{"email":"lovelace@college.test","currentPassword":"correct-horse"}`,
			expectedStatus: http.StatusOK,
			expectedEmail:  "lovelace@college.test",
		},
		{
			name:           "wrong password is forbidden",
			body:           `{"email":"lovelace@college.test","currentPassword":"nope"}`,
			expectedStatus: http.StatusForbidden,
			expectedEmail:  "ada@college.test",
		},
		{
			name: "taken email is a conflict",
			body: `{"email":"bob@college.test","currentPassword":"correct-horse"}`,
			updateFn: func(ctx context.Context, id string) error {
				return user.ErrEmailAlreadyUsed
			},
			expectedStatus: http.StatusConflict,
			expectedEmail:  "ada@college.test",
		},
		{
			name:           "invalid email",
			body:           `{"email":"not-an-email","currentPassword":"correct-horse"}`,
			expectedStatus: http.StatusBadRequest,
			expectedEmail:  "ada@college.test",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeUser(t, "correct-horse")
			store.updateFn = tc.updateFn
			h := handlers.NewProfileHandler(store)
			r := setupAuthedRouter(http.MethodPut, "/api/users/me/email", "u1", user.RoleStudent, h.UpdateEmail)

			w := sendJSON(r, http.MethodPut, "/api/users/me/email", tc.body)
			if w.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.expectedStatus, w.Code, w.Body.String())
			}
			if store.current.Email != tc.expectedEmail {
				t.Fatalf("expected email %q, got %q", tc.expectedEmail, store.current.Email)
			}
		})
	}
}

func TestUpdatePasswordHandler(t *testing.T) {
	store := newFakeUser(t, "correct-horse")
	h := handlers.NewProfileHandler(store)
	r := setupAuthedRouter(http.MethodPut, "/api/users/me/password", "u1", user.RoleStudent, h.UpdatePassword)

	w := sendJSON(r, http.MethodPut, "/api/users/me/password", `{"currentPassword":"wrong","newPassword":"battery-staple"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if security.CheckPassword(store.current.PasswordHash, "correct-horse") != nil {
		t.Fatalf("password must not change on a failed check")
	}

	w = sendJSON(r, http.MethodPut, "/api/users/me/password", `{"currentPassword":"correct-horse","newPassword":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}

	w = sendJSON(r, http.MethodPut, "/api/users/me/password", `{"currentPassword":"correct-horse","newPassword":"battery-staple"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", w.Code, w.Body.String())
	}
	if security.CheckPassword(store.current.PasswordHash, "battery-staple") != nil {
		t.Fatalf("new password not stored")
	}
}

func TestAdminUpdateUserHandler_PartialUpdate(t *testing.T) {
	store := newFakeUser(t, "correct-horse")
	h := handlers.NewUsersHandler(store)
	r := setupAuthedRouter(http.MethodPut, "/api/admin/users/:id", "admin-1", user.RoleAdmin, h.UpdateUser)

	w := sendJSON(r, http.MethodPut, "/api/admin/users/u1", `{"role":"faculty"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var got user.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Role != user.RoleFaculty || got.Name != "Ada" || got.Email != "ada@college.test" {
		t.Fatalf("only role should change, got %+v", got)
	}

	w = sendJSON(r, http.MethodPut, "/api/admin/users/u1", `{"role":"dean"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}

	w = sendJSON(r, http.MethodPut, "/api/admin/users/missing", `{"name":"Nobody"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdminDeleteUserHandler(t *testing.T) {
	store := newFakeUser(t, "correct-horse")
	store.deleteFn = func(ctx context.Context, id string) error {
		if id == "missing" {
			return user.ErrNotFound
		}
		return nil
	}
	h := handlers.NewUsersHandler(store)
	r := setupAuthedRouter(http.MethodDelete, "/api/admin/users/:id", "admin-1", user.RoleAdmin, h.DeleteUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/users/admin-1", nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for self delete, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/users/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/users/u1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "u1" {
		t.Fatalf("unexpected deletes %v", store.deleted)
	}
}
