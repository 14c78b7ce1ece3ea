package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// ErrUnknownReport возвращается для отчёта, которого нет в удалённом API.
var ErrUnknownReport = errors.New("unknown report")

// Customers возвращает клиентов. Строка поиска передаётся в удалённый API
// и повторно применяется локально вместе с сортировкой.
func (s *Service) Customers(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Customer, error) {
	customers, err := s.api.SearchCustomers(ctx, sess, q.Search)
	if err != nil {
		return nil, s.upstream(ctx, "search customers", err)
	}
	return listview.CustomerView.Apply(customers, q), nil
}

// CreateCustomer создаёт клиента.
func (s *Service) CreateCustomer(ctx context.Context, sess *model.Session, form validation.CustomerForm) (model.Customer, error) {
	if err := form.Validate().Err(); err != nil {
		return model.Customer{}, err
	}

	c, err := s.api.CreateCustomer(ctx, sess, customerInput(form))
	if err != nil {
		return model.Customer{}, s.upstream(ctx, "create customer", err)
	}
	return c, nil
}

// UpdateCustomer изменяет карточку клиента.
func (s *Service) UpdateCustomer(ctx context.Context, sess *model.Session, id model.ID, form validation.CustomerForm) (model.Customer, error) {
	if err := form.Validate().Err(); err != nil {
		return model.Customer{}, err
	}

	c, err := s.api.UpdateCustomer(ctx, sess, id, customerInput(form))
	if err != nil {
		return model.Customer{}, s.upstream(ctx, "update customer", err)
	}

	s.audit(ctx, sess, "customer_updated", "", "", c.Name, SeverityInfo)
	return c, nil
}

func customerInput(form validation.CustomerForm) model.Customer {
	return model.Customer{
		Name:    form.Name,
		Phone:   form.Phone,
		Email:   form.Email,
		Address: form.Address,
	}
}

// Brands возвращает справочник производителей.
func (s *Service) Brands(ctx context.Context, sess *model.Session) ([]model.Brand, error) {
	brands, err := s.api.Brands(ctx, sess)
	if err != nil {
		return nil, s.upstream(ctx, "list brands", err)
	}
	return brands, nil
}

// Locations возвращает справочник мест хранения.
func (s *Service) Locations(ctx context.Context, sess *model.Session) ([]model.Location, error) {
	locations, err := s.api.Locations(ctx, sess)
	if err != nil {
		return nil, s.upstream(ctx, "list locations", err)
	}
	return locations, nil
}

// Report возвращает отчёт удалённого API за период без изменений.
func (s *Service) Report(ctx context.Context, sess *model.Session, name string, form validation.ReportRangeForm) (json.RawMessage, error) {
	if !slices.Contains(gateway.Reports, name) {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownReport)
	}
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}

	raw, err := s.api.Report(ctx, sess, name, form.StartDate, form.EndDate)
	if err != nil {
		return nil, s.upstream(ctx, "report "+name, err)
	}
	return raw, nil
}

// AuditLog возвращает журнал аудита после поиска, фильтрации и сортировки.
func (s *Service) AuditLog(ctx context.Context, q listview.Query) ([]model.AuditLogEntry, error) {
	entries, err := s.repo.ListAudit(ctx, journalLimit)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	return listview.AuditLogView.Apply(entries, q), nil
}

// SystemLog возвращает системный журнал после поиска, фильтрации и сортировки.
func (s *Service) SystemLog(ctx context.Context, q listview.Query) ([]model.SystemLogEntry, error) {
	entries, err := s.repo.ListSystemLog(ctx, journalLimit)
	if err != nil {
		return nil, fmt.Errorf("list system log: %w", err)
	}
	return listview.SystemLogView.Apply(entries, q), nil
}
