// Package billing содержит правила расчёта оплаты заявок и сверки платежей.
package billing

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// ErrInvalidPaymentAction возвращается, если действие неприменимо к платежу в текущем состоянии.
var ErrInvalidPaymentAction = errors.New("payment action is not allowed in current state")

// Action описывает действие сверки над платежом.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionRetry   Action = "retry"
	ActionRefund  Action = "refund"
)

var actions = map[Action]struct {
	from model.PaymentState
	to   model.PaymentState
}{
	ActionConfirm: {model.PaymentStatePending, model.PaymentStateCompleted},
	ActionRetry:   {model.PaymentStateFailed, model.PaymentStatePending},
	ActionRefund:  {model.PaymentStateCompleted, model.PaymentStateRefunded},
}

// Next возвращает состояние платежа после действия.
func Next(current model.PaymentState, action Action) (model.PaymentState, error) {
	a, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q: %w", action, ErrInvalidPaymentAction)
	}
	if current != a.from {
		return "", fmt.Errorf("%s payment is %s: %w", action, current, ErrInvalidPaymentAction)
	}
	return a.to, nil
}

// settled сообщает, учитывается ли платёж в оплаченной сумме.
// Платежи в составе заявки приходят без состояния и считаются проведёнными.
func settled(p model.Payment) bool {
	return p.Status == "" || p.Status == model.PaymentStateCompleted
}

// Paid возвращает сумму проведённых платежей.
func Paid(payments []model.Payment) model.Cents {
	var sum model.Cents
	for _, p := range payments {
		if settled(p) {
			sum += p.Amount
		}
	}
	return sum
}

// DerivePaymentStatus вычисляет статус оплаты заявки по её платежам.
func DerivePaymentStatus(total model.Cents, payments []model.Payment) model.PaymentStatus {
	paid := Paid(payments)
	switch {
	case paid == 0:
		return model.PaymentStatusUnpaid
	case paid < total:
		return model.PaymentStatusPartiallyPaid
	case paid == total:
		return model.PaymentStatusFullyPaid
	default:
		return model.PaymentStatusRefunded
	}
}

// Outstanding возвращает остаток к оплате; переплата даёт ноль.
func Outstanding(total model.Cents, payments []model.Payment) model.Cents {
	return max(total-Paid(payments), 0)
}

// NetAmount возвращает сумму платежа за вычетом комиссии.
func NetAmount(amount, fee model.Cents) model.Cents {
	return amount - fee
}
