package service

import (
	"context"
	"slices"

	"github.com/mmeshcher/repairdesk/internal/billing"
	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/model"
)

// Payments возвращает платежи после поиска, фильтрации и сортировки.
func (s *Service) Payments(ctx context.Context, sess *model.Session, q listview.Query) ([]model.Payment, error) {
	payments, err := s.api.ListPayments(ctx, sess)
	if err != nil {
		return nil, s.upstream(ctx, "list payments", err)
	}
	for i := range payments {
		if payments[i].NetAmount == 0 {
			payments[i].NetAmount = billing.NetAmount(payments[i].Amount, payments[i].Fee)
		}
	}
	return listview.PaymentView.Apply(payments, q), nil
}

// ReconcilePayment применяет к платежу действие сверки: подтверждение, повтор или возврат.
func (s *Service) ReconcilePayment(ctx context.Context, sess *model.Session, id model.ID, action billing.Action) (model.Payment, error) {
	p, err := s.api.GetPayment(ctx, sess, id)
	if err != nil {
		return model.Payment{}, s.upstream(ctx, "get payment", err)
	}

	next, err := billing.Next(p.Status, action)
	if err != nil {
		return model.Payment{}, err
	}

	updated, err := s.api.UpdatePaymentStatus(ctx, sess, id, next)
	if err != nil {
		return model.Payment{}, s.upstream(ctx, "update payment", err)
	}

	severity := SeverityInfo
	if action == billing.ActionRefund {
		severity = SeverityWarning
	}
	s.audit(ctx, sess, "payment_"+string(action), p.TaskID, string(p.Status), string(next), severity)

	if p.TaskID != "" {
		if err := s.syncPaymentStatus(ctx, sess, p.TaskID, updated); err != nil {
			_ = s.upstream(ctx, "sync task payment status", err)
		}
	}
	return updated, nil
}

// syncPaymentStatus пересчитывает статус оплаты заявки с учётом изменённого платежа.
func (s *Service) syncPaymentStatus(ctx context.Context, sess *model.Session, taskID model.ID, changed model.Payment) error {
	t, err := s.api.GetTask(ctx, sess, taskID)
	if err != nil {
		return err
	}

	payments := slices.Clone(t.Payments)
	i := slices.IndexFunc(payments, func(p model.Payment) bool { return p.ID == changed.ID })
	if i >= 0 {
		payments[i] = changed
	} else {
		payments = append(payments, changed)
	}

	status := billing.DerivePaymentStatus(t.TotalCost, payments)
	if status == t.PaymentStatus {
		return nil
	}
	_, err = s.api.UpdateTask(ctx, sess, taskID, gateway.TaskUpdate{PaymentStatus: &status})
	return err
}
