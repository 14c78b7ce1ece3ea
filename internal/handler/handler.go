// Package handler содержит HTTP-обработчики API сервиса repairdesk.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/repairdesk/internal/billing"
	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/middleware"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/service"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Login(ctx context.Context, form validation.LoginForm) (*model.Session, model.User, error)
	Logout(ctx context.Context, sess *model.Session) error
	Profile(ctx context.Context, sess *model.Session) (model.User, error)
	UpdateProfile(ctx context.Context, sess *model.Session, form validation.ProfileForm) (model.User, error)
	ChangePassword(ctx context.Context, sess *model.Session, form validation.PasswordForm) error

	Tasks(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Task, error)
	TaskOptions(ctx context.Context, sess *model.Session) (map[string][]string, error)
	Task(ctx context.Context, sess *model.Session, id model.ID) (model.Task, error)
	TaskActivities(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskActivity, error)
	Transitions(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskStatus, error)
	CreateTask(ctx context.Context, sess *model.Session, form validation.NewTaskForm) (model.Task, error)
	ChangeStatus(ctx context.Context, sess *model.Session, id model.ID, form validation.StatusForm) (model.Task, error)
	AddActivity(ctx context.Context, sess *model.Session, id model.ID, form validation.ActivityForm) (model.TaskActivity, error)
	AddPayment(ctx context.Context, sess *model.Session, id model.ID, form validation.PaymentForm) (service.PaymentResult, error)
	DeleteTask(ctx context.Context, sess *model.Session, id model.ID) error

	Users(ctx context.Context, sess *model.Session, q listview.Query) ([]model.User, error)
	Technicians(ctx context.Context, sess *model.Session) ([]model.User, error)
	User(ctx context.Context, sess *model.Session, id model.ID) (model.User, error)
	CreateUser(ctx context.Context, sess *model.Session, form validation.UserForm) (model.User, error)
	UpdateUser(ctx context.Context, sess *model.Session, id model.ID, form validation.UserForm) (model.User, error)
	SetUserActive(ctx context.Context, sess *model.Session, id model.ID, active bool) error
	DeleteUser(ctx context.Context, sess *model.Session, id model.ID) error

	Payments(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Payment, error)
	ReconcilePayment(ctx context.Context, sess *model.Session, id model.ID, action billing.Action) (model.Payment, error)

	Customers(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Customer, error)
	CreateCustomer(ctx context.Context, sess *model.Session, form validation.CustomerForm) (model.Customer, error)
	UpdateCustomer(ctx context.Context, sess *model.Session, id model.ID, form validation.CustomerForm) (model.Customer, error)
	Brands(ctx context.Context, sess *model.Session) ([]model.Brand, error)
	Locations(ctx context.Context, sess *model.Session) ([]model.Location, error)
	Report(ctx context.Context, sess *model.Session, name string, form validation.ReportRangeForm) (json.RawMessage, error)

	AuditLog(ctx context.Context, q listview.Query) ([]model.AuditLogEntry, error)
	SystemLog(ctx context.Context, q listview.Query) ([]model.SystemLogEntry, error)
}

// Handler реализует HTTP-обработчики API сервиса repairdesk.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	now            func() time.Time
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		now:            time.Now,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors validation.Errors `json:"errors"`
}

// listResponse описывает ответ экрана списка. Empty позволяет клиенту показать пустое состояние.
type listResponse[T any] struct {
	Items []T  `json:"items"`
	Total int  `json:"total"`
	Empty bool `json:"empty"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items), Empty: len(items) == 0}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *validation.Error
		apiErr *gateway.APIError
	)

	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Fields})
	case errors.Is(err, gateway.ErrSessionExpired):
		h.authMiddleware.ClearSessionCookie(w)
		h.writeError(w, http.StatusUnauthorized, gateway.ErrSessionExpired.Error())
	case errors.Is(err, service.ErrTransitionNotAllowed):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, billing.ErrInvalidPaymentAction):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownReport):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			h.writeError(w, apiErr.Status, apiErr.Message)
		default:
			h.writeError(w, http.StatusBadGateway, apiErr.Message)
		}
	case errors.Is(err, service.ErrUpstream):
		h.writeError(w, http.StatusBadGateway, "Remote service is unavailable, please try again later")
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return nil, false
	}
	return sess, true
}

type loginResponse struct {
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Login выполняет вход и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var form validation.LoginForm
	if !h.decode(w, r, &form) {
		return
	}

	sess, user, err := h.service.Login(r.Context(), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.authMiddleware.SetSessionCookie(w, sess)
	h.writeJSON(w, http.StatusOK, loginResponse{User: user, ExpiresAt: sess.ExpiresAt})
}

// Logout закрывает сессию и удаляет cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), sess); err != nil {
		h.fail(w, r, err)
		return
	}

	h.authMiddleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// UpdateProfile сохраняет профиль текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.ProfileForm
	if !h.decode(w, r, &form) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), sess, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.PasswordForm
	if !h.decode(w, r, &form) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), sess, form); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
