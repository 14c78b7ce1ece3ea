package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/repairdesk/internal/model"
)

type stubSaver struct {
	saved []model.Session
	err   error
}

func (s *stubSaver) SaveSession(ctx context.Context, sess *model.Session) error {
	s.saved = append(s.saved, *sess)
	return s.err
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListTasks_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/tasks/" {
			t.Fatalf("path = %s, want /api/tasks/", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Fatalf("Authorization = %q, want Bearer access-1", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 1, "results": [{
			"id": 17,
			"title": "HP screen",
			"status": "In Progress",
			"priority": "High",
			"assigned_to": 3,
			"assigned_to_details": {"id": 3, "first_name": "John", "last_name": "Tech"},
			"brand_details": {"id": 2, "name": "HP"},
			"customer_name": "Alice",
			"total_cost": "1500.00",
			"payment_status": "Unpaid",
			"created_at": "2025-03-01T10:00:00Z"
		}]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL+"/api", time.Second, nil)

	tasks, err := client.ListTasks(testCtx(t), &model.Session{AccessToken: "access-1"})
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}

	got := tasks[0]
	if got.ID != "17" || got.Urgency != model.UrgencyHigh || got.Status != model.TaskStatusInProgress {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.AssignedToName != "John Tech" || got.Brand != "HP" {
		t.Fatalf("nested details not mapped: %q %q", got.AssignedToName, got.Brand)
	}
	if got.TotalCost != 150000 {
		t.Fatalf("TotalCost = %d, want 150000", got.TotalCost)
	}
}

func TestListTasks_EmptyArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	tasks, err := NewClient(ts.URL, time.Second, nil).ListTasks(testCtx(t), &model.Session{})
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("tasks = %#v, want empty non-nil slice", tasks)
	}
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail", status: http.StatusNotFound, body: `{"detail": "Not found."}`, message: "Not found."},
		{name: "error", status: http.StatusForbidden, body: `{"error": "You do not have permission to add payments."}`, message: "You do not have permission to add payments."},
		{name: "field errors", status: http.StatusBadRequest, body: `{"username": ["This field is required."], "email": ["Enter a valid email address."]}`, message: "email: Enter a valid email address.; username: This field is required."},
		{name: "html", status: http.StatusInternalServerError, body: `<h1>Server Error</h1>`, message: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewClient(ts.URL, time.Second, nil).GetTask(testCtx(t), &model.Session{}, "1")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Fatalf("APIError = %+v, want %d %q", apiErr, tt.status, tt.message)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("login must not send a token")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["username"] != "tech1" || body["password"] != "secret" {
			t.Fatalf("unexpected body: %v", body)
		}
		_, _ = w.Write([]byte(`{"user": {"id": 3, "username": "tech1", "role": "Technician"}, "access": "a", "refresh": "r"}`))
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL, time.Second, nil).Login(testCtx(t), "tech1", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.User.Role != model.RoleTechnician || res.Access != "a" || res.Refresh != "r" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUpdateProfile_RefreshesOnce(t *testing.T) {
	var updates, refreshes int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/profile/update/":
			updates++
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id": 3, "first_name": "Jane"}`))
		case "/auth/token/refresh/":
			refreshes++
			_, _ = w.Write([]byte(`{"access": "fresh"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	saver := &stubSaver{}
	sess := &model.Session{ID: "s1", AccessToken: "stale", RefreshToken: "r1"}

	u, err := NewClient(ts.URL, time.Second, saver).UpdateProfile(testCtx(t), sess, ProfileUpdate{FirstName: "Jane"})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if u.FirstName != "Jane" {
		t.Fatalf("FirstName = %q, want Jane", u.FirstName)
	}
	if updates != 2 || refreshes != 1 {
		t.Fatalf("updates = %d, refreshes = %d, want 2 and 1", updates, refreshes)
	}
	if sess.AccessToken != "fresh" || sess.RefreshToken != "r1" {
		t.Fatalf("session tokens = %q/%q", sess.AccessToken, sess.RefreshToken)
	}
	if len(saver.saved) != 1 || saver.saved[0].AccessToken != "fresh" {
		t.Fatalf("saver not called with refreshed session: %+v", saver.saved)
	}
}

func TestUpdateProfile_RefreshFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
	}))
	defer ts.Close()

	sess := &model.Session{AccessToken: "stale", RefreshToken: "expired"}
	_, err := NewClient(ts.URL, time.Second, nil).UpdateProfile(testCtx(t), sess, ProfileUpdate{})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error = %v, want ErrSessionExpired", err)
	}
	if sess.AccessToken != "stale" {
		t.Fatalf("access token must not change on failed refresh")
	}
}

func TestUpdateProfile_NoRetryOnOtherErrors(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"email": ["Enter a valid email address."]}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, time.Second, nil).UpdateProfile(testCtx(t), &model.Session{AccessToken: "a", RefreshToken: "r"}, ProfileUpdate{})
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("error = %v, want 400", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestOtherCallsDoNotRefresh(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, time.Second, nil).ListUsers(testCtx(t), &model.Session{AccessToken: "a", RefreshToken: "r"})
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("error = %v, want 401", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestReportPassesRange(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reports/revenue-summary/" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("start_date") != "2025-01-01" || r.URL.Query().Get("end_date") != "2025-01-31" {
			t.Fatalf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"total_revenue": "1200.00"}`))
	}))
	defer ts.Close()

	raw, err := NewClient(ts.URL, time.Second, nil).Report(testCtx(t), &model.Session{}, "revenue-summary", "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if string(raw) != `{"total_revenue": "1200.00"}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestUpdateCustomer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/customers/12/" {
			t.Fatalf("request = %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["id"] != "12" || body["name"] != "Alice Otieno" {
			t.Fatalf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"id": 12, "name": "Alice Otieno", "phone": "0712345678"}`))
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, time.Second, nil).UpdateCustomer(testCtx(t), &model.Session{AccessToken: "a"}, "12",
		model.Customer{Name: "Alice Otieno", Phone: "0712345678"})
	if err != nil {
		t.Fatalf("UpdateCustomer error: %v", err)
	}
	if c.ID != "12" || c.Name != "Alice Otieno" {
		t.Fatalf("customer = %+v", c)
	}
}

func TestGetUser(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/7/" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "Not found."}`))
			return
		}
		_, _ = w.Write([]byte(`{"id": 7, "username": "tom", "role": "Technician"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second, nil)

	u, err := client.GetUser(testCtx(t), &model.Session{}, "7")
	if err != nil || u.Username != "tom" {
		t.Fatalf("GetUser = %+v, %v", u, err)
	}

	_, err = client.GetUser(testCtx(t), &model.Session{}, "8")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("error = %v, want 404", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("upstream-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := TokenExpiry(token)
	if !ok || !got.Equal(exp) {
		t.Fatalf("TokenExpiry = %v, %v, want %v", got, ok, exp)
	}

	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatalf("TokenExpiry must fail for malformed token")
	}
}
