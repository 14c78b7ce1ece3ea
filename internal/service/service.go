// Package service содержит бизнес-логику сервиса repairdesk: сессии, заявки,
// пользователей, платежи, справочники, отчёты и журналы.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// ErrUpstream помечает ошибки обращения к удалённому API.
var ErrUpstream = errors.New("upstream request failed")

// DefaultSessionTTL используется, если срок действия токена доступа не удалось прочитать.
const DefaultSessionTTL = 24 * time.Hour

// journalLimit ограничивает число записей журнала, читаемых для одного экрана.
const journalLimit = 1000

// Уровни важности записей журналов.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Repository описывает хранилище сессий и журналов.
type Repository interface {
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	AppendAudit(ctx context.Context, e *model.AuditLogEntry) error
	ListAudit(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
	AppendSystemLog(ctx context.Context, e *model.SystemLogEntry) error
	ListSystemLog(ctx context.Context, limit int) ([]model.SystemLogEntry, error)
}

// Gateway описывает удалённый REST API мастерской.
type Gateway interface {
	Login(ctx context.Context, username, password string) (*gateway.LoginResult, error)
	Logout(ctx context.Context, sess *model.Session) error
	Profile(ctx context.Context, sess *model.Session) (model.User, error)
	UpdateProfile(ctx context.Context, sess *model.Session, in gateway.ProfileUpdate) (model.User, error)
	ChangePassword(ctx context.Context, sess *model.Session, in gateway.PasswordChange) error

	ListTasks(ctx context.Context, sess *model.Session) ([]model.Task, error)
	GetTask(ctx context.Context, sess *model.Session, id model.ID) (model.Task, error)
	CreateTask(ctx context.Context, sess *model.Session, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, sess *model.Session, id model.ID, u gateway.TaskUpdate) (model.Task, error)
	DeleteTask(ctx context.Context, sess *model.Session, id model.ID) error
	StatusOptions(ctx context.Context, sess *model.Session) ([]model.TaskStatus, error)
	TaskActivities(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskActivity, error)
	AddActivity(ctx context.Context, sess *model.Session, id model.ID, kind, message string) (model.TaskActivity, error)
	AddPayment(ctx context.Context, sess *model.Session, id model.ID, p model.Payment) (model.Payment, error)

	ListUsers(ctx context.Context, sess *model.Session) ([]model.User, error)
	ListUsersByRole(ctx context.Context, sess *model.Session, role model.Role) ([]model.User, error)
	GetUser(ctx context.Context, sess *model.Session, id model.ID) (model.User, error)
	CreateUser(ctx context.Context, sess *model.Session, in gateway.UserInput) (model.User, error)
	UpdateUser(ctx context.Context, sess *model.Session, id model.ID, in gateway.UserInput) (model.User, error)
	DeleteUser(ctx context.Context, sess *model.Session, id model.ID) error
	ActivateUser(ctx context.Context, sess *model.Session, id model.ID) error
	DeactivateUser(ctx context.Context, sess *model.Session, id model.ID) error

	ListPayments(ctx context.Context, sess *model.Session) ([]model.Payment, error)
	GetPayment(ctx context.Context, sess *model.Session, id model.ID) (model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, sess *model.Session, id model.ID, status model.PaymentState) (model.Payment, error)

	SearchCustomers(ctx context.Context, sess *model.Session, query string) ([]model.Customer, error)
	CreateCustomer(ctx context.Context, sess *model.Session, in model.Customer) (model.Customer, error)
	UpdateCustomer(ctx context.Context, sess *model.Session, id model.ID, in model.Customer) (model.Customer, error)
	Brands(ctx context.Context, sess *model.Session) ([]model.Brand, error)
	Locations(ctx context.Context, sess *model.Session) ([]model.Location, error)
	Report(ctx context.Context, sess *model.Session, name, start, end string) (json.RawMessage, error)
}

// Service реализует сценарии дашборда поверх удалённого API и локального хранилища.
type Service struct {
	repo Repository
	api  Gateway
	log  *zap.Logger
	now  func() time.Time
}

// NewService создаёт новый сервис.
func NewService(repo Repository, api Gateway, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo: repo,
		api:  api,
		log:  log,
		now:  time.Now,
	}
}

// Login проверяет форму входа, выполняет вход в удалённом API и открывает сессию.
func (s *Service) Login(ctx context.Context, form validation.LoginForm) (*model.Session, model.User, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, model.User{}, err
	}

	res, err := s.api.Login(ctx, form.Username, form.Password)
	if err != nil {
		return nil, model.User{}, s.upstream(ctx, "login", err)
	}

	expires, ok := gateway.TokenExpiry(res.Access)
	if !ok {
		expires = s.now().Add(DefaultSessionTTL)
	}

	sess := &model.Session{
		UserID:       res.User.ID.String(),
		Username:     res.User.Username,
		Role:         res.User.Role,
		AccessToken:  res.Access,
		RefreshToken: res.Refresh,
		ExpiresAt:    expires,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, model.User{}, fmt.Errorf("create session: %w", err)
	}

	s.audit(ctx, sess, "login", "", "", "", SeverityInfo)
	return sess, res.User, nil
}

// Logout закрывает сессию. Ошибка отзыва токена в удалённом API не мешает выходу.
func (s *Service) Logout(ctx context.Context, sess *model.Session) error {
	if err := s.api.Logout(ctx, sess); err != nil {
		_ = s.upstream(ctx, "logout", err)
	}

	if err := s.repo.DeleteSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit(ctx, sess, "logout", "", "", "", SeverityInfo)
	return nil
}

// Session возвращает действующую сессию по идентификатору.
func (s *Service) Session(ctx context.Context, id string) (*model.Session, error) {
	return s.repo.GetSession(ctx, id)
}

// Profile возвращает профиль текущего пользователя.
func (s *Service) Profile(ctx context.Context, sess *model.Session) (model.User, error) {
	u, err := s.api.Profile(ctx, sess)
	if err != nil {
		return model.User{}, s.upstream(ctx, "get profile", err)
	}
	return u, nil
}

// UpdateProfile сохраняет профиль текущего пользователя. Если токен обновить не удалось,
// сессия закрывается и возвращается gateway.ErrSessionExpired.
func (s *Service) UpdateProfile(ctx context.Context, sess *model.Session, form validation.ProfileForm) (model.User, error) {
	if err := form.Validate().Err(); err != nil {
		return model.User{}, err
	}

	u, err := s.api.UpdateProfile(ctx, sess, gateway.ProfileUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrSessionExpired) {
			if derr := s.repo.DeleteSession(ctx, sess.ID); derr != nil {
				s.log.Warn("failed to delete expired session", zap.Error(derr))
			}
		}
		return model.User{}, s.upstream(ctx, "update profile", err)
	}

	s.audit(ctx, sess, "profile_updated", "", "", u.Email, SeverityInfo)
	return u, nil
}

// ChangePassword меняет пароль текущего пользователя.
func (s *Service) ChangePassword(ctx context.Context, sess *model.Session, form validation.PasswordForm) error {
	if err := form.Validate().Err(); err != nil {
		return err
	}

	err := s.api.ChangePassword(ctx, sess, gateway.PasswordChange{
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return s.upstream(ctx, "change password", err)
	}

	s.audit(ctx, sess, "password_changed", "", "", "", SeverityWarning)
	return nil
}

// StartSessionSweeper запускает фоновое удаление истёкших сессий.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepSessions(ctx)
			}
		}
	}()
}

func (s *Service) sweepSessions(ctx context.Context) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		s.log.Warn("failed to delete expired sessions", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired sessions deleted", zap.Int64("count", n))
	}
}

// upstream пишет ошибку удалённого API в лог и системный журнал и возвращает её с контекстом операции.
func (s *Service) upstream(ctx context.Context, op string, err error) error {
	level := SeverityError
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		level = SeverityWarning
	}

	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if level == SeverityError {
		s.log.Error("upstream call failed", fields...)
	} else {
		s.log.Warn("upstream call rejected", fields...)
	}

	entry := &model.SystemLogEntry{Level: level, Source: "gateway", Message: op + ": " + err.Error()}
	if lerr := s.repo.AppendSystemLog(context.WithoutCancel(ctx), entry); lerr != nil {
		s.log.Warn("failed to append system log", zap.Error(lerr))
	}

	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// audit добавляет запись в журнал аудита. Ошибка записи не прерывает операцию.
func (s *Service) audit(ctx context.Context, sess *model.Session, action string, taskID model.ID, oldValue, newValue, severity string) {
	entry := &model.AuditLogEntry{
		Actor:    sess.Username,
		Action:   action,
		TaskID:   taskID,
		OldValue: oldValue,
		NewValue: newValue,
		Severity: severity,
	}
	if err := s.repo.AppendAudit(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn("failed to append audit entry", zap.String("action", action), zap.Error(err))
	}
}
