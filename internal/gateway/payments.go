package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// ListPayments возвращает все платежи.
func (c *Client) ListPayments(ctx context.Context, sess *model.Session) ([]model.Payment, error) {
	return list[model.Payment](ctx, c, sess, "/payments/", nil)
}

// GetPayment возвращает платёж по идентификатору.
func (c *Client) GetPayment(ctx context.Context, sess *model.Session, id model.ID) (model.Payment, error) {
	var p model.Payment
	err := c.do(ctx, sess, http.MethodGet, "/payments/"+url.PathEscape(id.String())+"/", nil, nil, &p)
	return p, err
}

// UpdatePaymentStatus меняет состояние платежа.
func (c *Client) UpdatePaymentStatus(ctx context.Context, sess *model.Session, id model.ID, status model.PaymentState) (model.Payment, error) {
	var p model.Payment
	body := map[string]model.PaymentState{"status": status}
	err := c.do(ctx, sess, http.MethodPatch, "/payments/"+url.PathEscape(id.String())+"/", nil, body, &p)
	return p, err
}
