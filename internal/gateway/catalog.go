package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// Reports перечисляет отчёты, которые умеет строить удалённый API.
var Reports = []string{
	"revenue-summary",
	"outstanding-payments",
	"task-status",
	"technician-performance",
	"turnaround-time",
	"technician-workload",
	"payment-methods",
	"laptops-in-shop",
}

// SearchCustomers ищет клиентов по имени или телефону; пустой запрос возвращает всех.
func (c *Client) SearchCustomers(ctx context.Context, sess *model.Session, query string) ([]model.Customer, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"search": {query}}
	}
	return list[model.Customer](ctx, c, sess, "/customers/search/", q)
}

// CreateCustomer создаёт клиента.
func (c *Client) CreateCustomer(ctx context.Context, sess *model.Session, in model.Customer) (model.Customer, error) {
	var res model.Customer
	err := c.do(ctx, sess, http.MethodPost, "/customers/create/", nil, in, &res)
	return res, err
}

// UpdateCustomer изменяет карточку клиента.
func (c *Client) UpdateCustomer(ctx context.Context, sess *model.Session, id model.ID, in model.Customer) (model.Customer, error) {
	in.ID = id
	var res model.Customer
	err := c.do(ctx, sess, http.MethodPut, "/customers/"+url.PathEscape(id.String())+"/", nil, in, &res)
	return res, err
}

// Brands возвращает справочник брендов.
func (c *Client) Brands(ctx context.Context, sess *model.Session) ([]model.Brand, error) {
	return list[model.Brand](ctx, c, sess, "/brands/", nil)
}

// Locations возвращает справочник мест хранения.
func (c *Client) Locations(ctx context.Context, sess *model.Session) ([]model.Location, error) {
	return list[model.Location](ctx, c, sess, "/locations/", nil)
}

// Report возвращает отчёт name за период без изменений. Пустые даты не передаются.
func (c *Client) Report(ctx context.Context, sess *model.Session, name, start, end string) (json.RawMessage, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start_date", start)
	}
	if end != "" {
		q.Set("end_date", end)
	}

	var raw json.RawMessage
	if err := c.do(ctx, sess, http.MethodGet, "/reports/"+url.PathEscape(name)+"/", q, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
