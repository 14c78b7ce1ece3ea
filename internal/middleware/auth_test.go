package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/repairdesk/internal/model"
)

type stubStore struct {
	sessions map[string]*model.Session
	err      error
}

func (s *stubStore) Session(_ context.Context, id string) (*model.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess, nil
}

func newTestSession() *model.Session {
	return &model.Session{
		ID:        "0b4f7c1e-2d6a-4f43-9d8e-5a1c2b3d4e5f",
		Username:  "alice",
		Role:      model.RoleManager,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func sessionCookie(t *testing.T, m *AuthMiddleware, sess *model.Session) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	m.SetSessionCookie(w, sess)
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookies set by SetSessionCookie")
	}
	return cookies[0]
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	sess := newTestSession()
	m := NewAuthMiddleware("test-secret", &stubStore{sessions: map[string]*model.Session{sess.ID: sess}}, false)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session not in context")
		}
		if got.Username != "alice" {
			t.Fatalf("username from context = %q, want alice", got.Username)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie(t, m, sess))

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	sess := newTestSession()
	store := &stubStore{sessions: map[string]*model.Session{sess.ID: sess}}
	m := NewAuthMiddleware("test-secret", store, false)
	other := NewAuthMiddleware("other-secret", store, false)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "unsigned value", cookie: &http.Cookie{Name: sessionCookieName, Value: sess.ID}},
		{name: "tampered signature", cookie: &http.Cookie{Name: sessionCookieName, Value: sess.ID + ".deadbeef"}},
		{name: "signed with another key", cookie: sessionCookie(t, other, sess)},
		{name: "unknown session", cookie: sessionCookie(t, m, &model.Session{ID: "missing"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}

			m.Middleware(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	sess := newTestSession()
	m := NewAuthMiddleware("test-secret", &stubStore{err: errors.New("dial tcp 127.0.0.1:5432: connection refused")}, false)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie(t, m, sess))

	m.Middleware(next).ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("session cookie must survive a store failure, got %v", w.Result().Cookies())
	}
}

func TestAuthMiddlewareUnknownSessionClearsCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret", &stubStore{sessions: map[string]*model.Session{}}, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(sessionCookie(t, m, newTestSession()))

	m.Middleware(http.NotFoundHandler()).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %v", cookies)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		sess *model.Session
		want int
	}{
		{name: "allowed role", sess: &model.Session{Role: model.RoleAdministrator}, want: http.StatusOK},
		{name: "other role", sess: &model.Session{Role: model.RoleTechnician}, want: http.StatusForbidden},
		{name: "no session", want: http.StatusUnauthorized},
	}

	h := RequireRole(model.RoleAdministrator, model.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.sess != nil {
				r = r.WithContext(WithSession(r.Context(), tt.sess))
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestClearSessionCookie(t *testing.T) {
	m := NewAuthMiddleware("", &stubStore{}, true)

	w := httptest.NewRecorder()
	m.ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	if cookies[0].MaxAge >= 0 || cookies[0].Value != "" || !cookies[0].Secure {
		t.Fatalf("cookie not cleared: %+v", cookies[0])
	}
}
