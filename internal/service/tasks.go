package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/repairdesk/internal/billing"
	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/transitions"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// ErrTransitionNotAllowed возвращается, если роль не может перевести заявку в запрошенный статус.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// Типы записей журнала работ по заявке.
const (
	ActivityIntake       = "intake"
	ActivityStatusUpdate = "status_update"
	ActivityNote         = "note"
	ActivityPayment      = "payment"
)

const titleDescriptionLimit = 50

// Tasks возвращает заявки после поиска, фильтрации и сортировки.
func (s *Service) Tasks(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Task, error) {
	tasks, err := s.api.ListTasks(ctx, sess)
	if err != nil {
		return nil, s.upstream(ctx, "list tasks", err)
	}
	return listview.TaskView.Apply(tasks, q), nil
}

// TaskOptions возвращает значения выпадающих фильтров списка заявок.
// Статусы берутся из удалённого API, остальные значения из самих заявок.
func (s *Service) TaskOptions(ctx context.Context, sess *model.Session) (map[string][]string, error) {
	tasks, err := s.api.ListTasks(ctx, sess)
	if err != nil {
		return nil, s.upstream(ctx, "list tasks", err)
	}
	opts := listview.TaskView.FilterOptions(tasks)

	statuses, err := s.api.StatusOptions(ctx, sess)
	if err != nil {
		s.log.Warn("status options unavailable", zap.Error(err))
		return opts, nil
	}
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	opts["status"] = values
	return opts, nil
}

// Task возвращает заявку.
func (s *Service) Task(ctx context.Context, sess *model.Session, id model.ID) (model.Task, error) {
	t, err := s.api.GetTask(ctx, sess, id)
	if err != nil {
		return model.Task{}, s.upstream(ctx, "get task", err)
	}
	return t, nil
}

// TaskActivities возвращает журнал работ по заявке.
func (s *Service) TaskActivities(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskActivity, error) {
	acts, err := s.api.TaskActivities(ctx, sess, id)
	if err != nil {
		return nil, s.upstream(ctx, "list task activities", err)
	}
	return acts, nil
}

// Transitions возвращает статусы, в которые роль сессии может перевести заявку.
func (s *Service) Transitions(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskStatus, error) {
	t, err := s.Task(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return transitions.Allowed(sess.Role, t.Status), nil
}

// CreateTask принимает устройство в ремонт: новая заявка получает статус Pending
// и запись о приёме в журнале работ.
func (s *Service) CreateTask(ctx context.Context, sess *model.Session, form validation.NewTaskForm) (model.Task, error) {
	if err := form.Validate().Err(); err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		Title:           form.Title,
		CustomerID:      form.CustomerID,
		CustomerName:    form.CustomerName,
		CustomerPhone:   form.CustomerPhone,
		CustomerEmail:   form.CustomerEmail,
		Brand:           form.Brand,
		LaptopModel:     form.LaptopModel,
		SerialNumber:    form.SerialNumber,
		DeviceType:      form.DeviceType,
		DeviceNotes:     form.DeviceNotes,
		Description:     form.Description,
		Status:          model.TaskStatusPending,
		Urgency:         form.Urgency,
		AssignedTo:      form.AssignedTo,
		CurrentLocation: form.CurrentLocation,
		EstimatedCost:   form.EstimatedCost,
		PaymentStatus:   model.PaymentStatusUnpaid,
		DateIn:          form.DateIn,
		DueDate:         form.DueDate,
	}
	if t.Title == "" {
		t.Title = taskTitle(form)
	}
	if t.DateIn == "" {
		t.DateIn = s.now().Format(time.DateOnly)
	}

	created, err := s.api.CreateTask(ctx, sess, t)
	if err != nil {
		return model.Task{}, s.upstream(ctx, "create task", err)
	}

	if _, err := s.api.AddActivity(ctx, sess, created.ID, ActivityIntake, "Device received at "+t.CurrentLocation); err != nil {
		_ = s.upstream(ctx, "add intake activity", err)
	}

	s.audit(ctx, sess, "task_created", created.ID, "", string(created.Status), SeverityInfo)
	return created, nil
}

// ChangeStatus переводит заявку в новый статус, если это разрешено роли сессии.
func (s *Service) ChangeStatus(ctx context.Context, sess *model.Session, id model.ID, form validation.StatusForm) (model.Task, error) {
	if err := form.Validate().Err(); err != nil {
		return model.Task{}, err
	}

	t, err := s.Task(ctx, sess, id)
	if err != nil {
		return model.Task{}, err
	}

	if !transitions.Permits(sess.Role, t.Status, form.Status) {
		return model.Task{}, fmt.Errorf("%s cannot move task from %q to %q: %w",
			sess.Role, t.Status, form.Status, ErrTransitionNotAllowed)
	}

	updated, err := s.api.UpdateTask(ctx, sess, id, gateway.TaskUpdate{Status: &form.Status})
	if err != nil {
		return model.Task{}, s.upstream(ctx, "update task status", err)
	}

	msg := fmt.Sprintf("Status changed from %s to %s", t.Status, form.Status)
	if _, err := s.api.AddActivity(ctx, sess, id, ActivityStatusUpdate, msg); err != nil {
		_ = s.upstream(ctx, "add status activity", err)
	}

	s.audit(ctx, sess, "status_change", id, string(t.Status), string(form.Status), SeverityInfo)
	return updated, nil
}

// AddActivity добавляет заметку к заявке.
func (s *Service) AddActivity(ctx context.Context, sess *model.Session, id model.ID, form validation.ActivityForm) (model.TaskActivity, error) {
	if err := form.Validate().Err(); err != nil {
		return model.TaskActivity{}, err
	}

	kind := form.Type
	if kind == "" {
		kind = ActivityNote
	}

	act, err := s.api.AddActivity(ctx, sess, id, kind, form.Message)
	if err != nil {
		return model.TaskActivity{}, s.upstream(ctx, "add activity", err)
	}
	return act, nil
}

// PaymentResult описывает заявку после добавления платежа.
type PaymentResult struct {
	Payment       model.Payment       `json:"payment"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Outstanding   model.Cents         `json:"outstanding"`
}

// AddPayment регистрирует платёж по заявке и пересчитывает статус оплаты.
func (s *Service) AddPayment(ctx context.Context, sess *model.Session, id model.ID, form validation.PaymentForm) (PaymentResult, error) {
	if err := form.Validate().Err(); err != nil {
		return PaymentResult{}, err
	}

	t, err := s.Task(ctx, sess, id)
	if err != nil {
		return PaymentResult{}, err
	}

	date := form.Date
	if date == "" {
		date = s.now().Format(time.DateOnly)
	}

	p, err := s.api.AddPayment(ctx, sess, id, model.Payment{
		TaskID:    id,
		Amount:    form.Amount,
		Method:    form.Method,
		Reference: form.Reference,
		Date:      date,
	})
	if err != nil {
		return PaymentResult{}, s.upstream(ctx, "add payment", err)
	}

	payments := append(t.Payments[:len(t.Payments):len(t.Payments)], p)
	status := billing.DerivePaymentStatus(t.TotalCost, payments)
	if status != t.PaymentStatus {
		if _, err := s.api.UpdateTask(ctx, sess, id, gateway.TaskUpdate{PaymentStatus: &status}); err != nil {
			return PaymentResult{}, s.upstream(ctx, "update payment status", err)
		}
	}

	if _, err := s.api.AddActivity(ctx, sess, id, ActivityPayment,
		fmt.Sprintf("Payment of %s received via %s", p.Amount, p.Method)); err != nil {
		_ = s.upstream(ctx, "add payment activity", err)
	}

	s.audit(ctx, sess, "payment_added", id, string(t.PaymentStatus), p.Amount.String(), SeverityInfo)
	return PaymentResult{
		Payment:       p,
		PaymentStatus: status,
		Outstanding:   billing.Outstanding(t.TotalCost, payments),
	}, nil
}

// DeleteTask удаляет заявку.
func (s *Service) DeleteTask(ctx context.Context, sess *model.Session, id model.ID) error {
	if err := s.api.DeleteTask(ctx, sess, id); err != nil {
		return s.upstream(ctx, "delete task", err)
	}
	s.audit(ctx, sess, "task_deleted", id, "", "", SeverityWarning)
	return nil
}

func taskTitle(form validation.NewTaskForm) string {
	desc := strings.TrimSpace(form.Description)
	if r := []rune(desc); len(r) > titleDescriptionLimit {
		desc = string(r[:titleDescriptionLimit]) + "..."
	}
	device := strings.TrimSpace(form.Brand + " " + form.LaptopModel)
	if device == "" {
		return desc
	}
	return device + " - " + desc
}
