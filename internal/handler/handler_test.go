package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/repairdesk/internal/export"
	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/middleware"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/service"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// stubService реализует вызовы, нужные тестам; остальные методы Service паникуют.
type stubService struct {
	Service

	loginSess *model.Session
	loginUser model.User
	loginErr  error

	tasks    []model.Task
	tasksErr error
	lastQ    listview.Query

	statusErr error

	profileErr error

	reportName  string
	reportRange validation.ReportRangeForm

	customerID model.ID
}

func (s *stubService) Login(ctx context.Context, form validation.LoginForm) (*model.Session, model.User, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, model.User{}, err
	}
	return s.loginSess, s.loginUser, s.loginErr
}

func (s *stubService) Tasks(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Task, error) {
	s.lastQ = q
	return listview.TaskView.Apply(s.tasks, q), s.tasksErr
}

func (s *stubService) ChangeStatus(ctx context.Context, sess *model.Session, id model.ID, form validation.StatusForm) (model.Task, error) {
	return model.Task{ID: id, Status: form.Status}, s.statusErr
}

func (s *stubService) UpdateProfile(ctx context.Context, sess *model.Session, form validation.ProfileForm) (model.User, error) {
	return model.User{}, s.profileErr
}

func (s *stubService) Users(ctx context.Context, sess *model.Session, q listview.Query) ([]model.User, error) {
	return []model.User{{Username: "tom"}}, nil
}

func (s *stubService) User(ctx context.Context, sess *model.Session, id model.ID) (model.User, error) {
	return model.User{ID: id, Username: "tom", Role: model.RoleTechnician}, nil
}

func (s *stubService) UpdateCustomer(ctx context.Context, sess *model.Session, id model.ID, form validation.CustomerForm) (model.Customer, error) {
	if err := form.Validate().Err(); err != nil {
		return model.Customer{}, err
	}
	s.customerID = id
	return model.Customer{ID: id, Name: form.Name, Phone: form.Phone}, nil
}

func (s *stubService) Report(ctx context.Context, sess *model.Session, name string, form validation.ReportRangeForm) (json.RawMessage, error) {
	s.reportName = name
	s.reportRange = form
	return json.RawMessage(`{"revenue":"100.00"}`), nil
}

type stubStore struct {
	sessions map[string]*model.Session
}

func (s *stubStore) Session(ctx context.Context, id string) (*model.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess, nil
}

type testServer struct {
	h      *Handler
	router http.Handler
	store  *stubStore
}

func newTestServer(t *testing.T, svc Service) *testServer {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	store := &stubStore{sessions: make(map[string]*model.Session)}
	auth := middleware.NewAuthMiddleware("test-secret", store, false)

	h := NewHandler(svc, logger, auth)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	return &testServer{h: h, router: h.SetupRouter(), store: store}
}

// do выполняет запрос от имени пользователя с ролью role; пустая роль означает анонимный запрос.
func (ts *testServer) do(t *testing.T, role model.Role, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if role != "" {
		sess := &model.Session{ID: fmt.Sprintf("sess-%s", role), Username: "tester", Role: role, ExpiresAt: time.Now().Add(time.Hour)}
		ts.store.sessions[sess.ID] = sess

		rec := httptest.NewRecorder()
		ts.h.authMiddleware.SetSessionCookie(rec, sess)
		req.AddCookie(rec.Result().Cookies()[0])
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	svc := &stubService{
		loginSess: &model.Session{ID: "abc", Role: model.RoleManager, ExpiresAt: time.Now().Add(time.Hour)},
		loginUser: model.User{Username: "mary", Role: model.RoleManager},
	}
	ts := newTestServer(t, svc)

	rec := ts.do(t, "", http.MethodPost, "/api/auth/login", validation.LoginForm{Username: "mary", Password: "secret"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatalf("session cookie was not set")
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "mary" {
		t.Fatalf("user = %+v", resp.User)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		loginErr error
		want     int
	}{
		{name: "empty form", body: validation.LoginForm{}, want: http.StatusUnprocessableEntity},
		{name: "bad json", body: "not an object", want: http.StatusBadRequest},
		{
			name:     "invalid credentials",
			body:     validation.LoginForm{Username: "u", Password: "p"},
			loginErr: fmt.Errorf("%w: login: %w", service.ErrUpstream, &gateway.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}),
			want:     http.StatusUnauthorized,
		},
		{
			name:     "upstream down",
			body:     validation.LoginForm{Username: "u", Password: "p"},
			loginErr: fmt.Errorf("%w: login: %w", service.ErrUpstream, errors.New("connection refused")),
			want:     http.StatusBadGateway,
		},
		{
			name:     "session store failure",
			body:     validation.LoginForm{Username: "u", Password: "p"},
			loginErr: errors.New("create session: broken pipe"),
			want:     http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubService{loginErr: tt.loginErr})

			rec := ts.do(t, "", http.MethodPost, "/api/auth/login", tt.body)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestLogin_ValidationBody(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, "", http.MethodPost, "/api/auth/login", validation.LoginForm{Username: "u"})

	var resp validationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Errors["password"] != "Password is required." {
		t.Fatalf("errors = %v", resp.Errors)
	}
}

func TestTasks_RequiresSession(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, "", http.MethodGet, "/api/tasks", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestTasks_List(t *testing.T) {
	svc := &stubService{tasks: []model.Task{
		{ID: "1", Status: model.TaskStatusCompleted, Urgency: model.UrgencyHigh},
		{ID: "2", Status: model.TaskStatusPending, Urgency: model.UrgencyHigh},
	}}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleTechnician, http.MethodGet, "/api/tasks?status=Completed&sort=id&dir=desc", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp listResponse[model.Task]
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Empty || resp.Items[0].ID != "1" {
		t.Fatalf("response = %+v", resp)
	}
	if svc.lastQ.Sort.Direction != listview.DirectionDesc {
		t.Fatalf("sort not parsed: %+v", svc.lastQ.Sort)
	}
}

func TestTasks_EmptyState(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, model.RoleTechnician, http.MethodGet, "/api/tasks", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"items":[],"total":0,"empty":true}` {
		t.Fatalf("body = %s", body)
	}
}

func TestTasks_BadDateRange(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, model.RoleTechnician, http.MethodGet, "/api/tasks?from=2025-03-05&to=2025-03-01", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTasks_UpstreamErrorMessage(t *testing.T) {
	svc := &stubService{tasksErr: fmt.Errorf("%w: list tasks: %w", service.ErrUpstream,
		&gateway.APIError{Status: http.StatusInternalServerError, Message: "Database unavailable"})}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleManager, http.MethodGet, "/api/tasks", nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Database unavailable" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestTasks_ExportCSV(t *testing.T) {
	svc := &stubService{tasks: []model.Task{{ID: "1", Title: `15" screen`, Status: model.TaskStatusPending}}}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleManager, http.MethodGet, "/api/tasks/export?format=csv", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.FormatCSV.ContentType() {
		t.Fatalf("content-type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="tasks_2025-03-01.csv"` {
		t.Fatalf("content-disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), `"15"" screen"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestTasks_ExportUnknownFormat(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, model.RoleManager, http.MethodGet, "/api/tasks/export?format=docx", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChangeStatus_NotAllowed(t *testing.T) {
	svc := &stubService{statusErr: fmt.Errorf("Technician cannot move task: %w", service.ErrTransitionNotAllowed)}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleTechnician, http.MethodPut, "/api/tasks/5/status",
		validation.StatusForm{Status: model.TaskStatusPickedUp})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestChangeStatus_OK(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, model.RoleTechnician, http.MethodPut, "/api/tasks/5/status",
		validation.StatusForm{Status: model.TaskStatusInProgress})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var task model.Task
	if err := json.NewDecoder(rec.Body).Decode(&task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID != "5" || task.Status != model.TaskStatusInProgress {
		t.Fatalf("task = %+v", task)
	}
}

func TestUpdateProfile_SessionExpiredClearsCookie(t *testing.T) {
	ts := newTestServer(t, &stubService{profileErr: fmt.Errorf("%w: update profile: %w", service.ErrUpstream, gateway.ErrSessionExpired)})

	rec := ts.do(t, model.RoleManager, http.MethodPut, "/api/auth/profile", validation.ProfileForm{})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		name   string
		role   model.Role
		target string
		want   int
	}{
		{name: "manager lists users", role: model.RoleManager, target: "/api/users", want: http.StatusOK},
		{name: "technician cannot list users", role: model.RoleTechnician, target: "/api/users", want: http.StatusForbidden},
		{name: "front desk cannot read reports", role: model.RoleFrontDesk, target: "/api/reports/revenue-summary", want: http.StatusForbidden},
		{name: "manager cannot read system log", role: model.RoleManager, target: "/api/system-log", want: http.StatusForbidden},
		{name: "manager reads a user", role: model.RoleManager, target: "/api/users/7", want: http.StatusOK},
		{name: "front desk cannot read a user", role: model.RoleFrontDesk, target: "/api/users/7", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubService{})

			rec := ts.do(t, tt.role, http.MethodGet, tt.target, nil)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestReport_PassesRange(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleAccountant, http.MethodGet, "/api/reports/revenue-summary?start_date=2025-01-01&end_date=2025-01-31", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.reportName != "revenue-summary" || svc.reportRange.StartDate != "2025-01-01" || svc.reportRange.EndDate != "2025-01-31" {
		t.Fatalf("report call = %q %+v", svc.reportName, svc.reportRange)
	}
	if rec.Body.String() != `{"revenue":"100.00"}` {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestUpdateCustomer(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)

	rec := ts.do(t, model.RoleFrontDesk, http.MethodPut, "/api/customers/12", validation.CustomerForm{Name: "Alice Otieno", Phone: "0712 345 678"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.customerID != "12" {
		t.Fatalf("customer id = %q, want 12", svc.customerID)
	}

	rec = ts.do(t, model.RoleFrontDesk, http.MethodPut, "/api/customers/12", validation.CustomerForm{Phone: "12"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), `"name"`) || !strings.Contains(rec.Body.String(), `"phone"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
