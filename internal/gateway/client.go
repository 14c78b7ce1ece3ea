// Package gateway предоставляет клиент удалённого REST API мастерской.
//
// Каждый метод соответствует одной паре ресурс-действие. Сессия передаётся явно
// в каждый вызов; клиент не хранит токены между запросами.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// ErrSessionExpired возвращается, когда не удалось обновить токен доступа.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError описывает ответ удалённого API с кодом вне диапазона 2xx.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// SessionSaver сохраняет токены сессии после их обновления.
type SessionSaver interface {
	SaveSession(ctx context.Context, sess *model.Session) error
}

// Client инкапсулирует HTTP-взаимодействие с удалённым API.
type Client struct {
	http  *resty.Client
	saver SessionSaver
}

// NewClient создаёт клиент удалённого API по указанному адресу.
// saver может быть nil, тогда обновлённые токены сохраняются только в переданной сессии.
func NewClient(baseURL string, timeout time.Duration, saver SessionSaver) *Client {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
			SetHeader("Accept", "application/json"),
		saver: saver,
	}
}

// do выполняет запрос и декодирует тело ответа в out, если out не nil.
func (c *Client) do(ctx context.Context, sess *model.Session, method, path string, query url.Values, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if sess != nil && sess.AccessToken != "" {
		req.SetAuthToken(sess.AccessToken)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return newAPIError(resp.StatusCode(), resp.Body())
	}

	if out == nil || len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// newAPIError извлекает сообщение из тела ответа: поле error, поле detail
// или ошибки валидации полей; иначе используется текст HTTP-статуса.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Message: http.StatusText(status)}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}

	for _, key := range []string{"error", "detail", "message"} {
		var s string
		if raw, ok := payload[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			e.Message = s
			return e
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		var msgs []string
		if json.Unmarshal(payload[k], &msgs) == nil && len(msgs) > 0 {
			parts = append(parts, k+": "+strings.Join(msgs, " "))
		}
	}
	if len(parts) > 0 {
		e.Message = strings.Join(parts, "; ")
	}
	return e
}

// IsStatus сообщает, является ли err ошибкой API с указанным кодом.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// decodeList принимает как массив, так и постраничный ответ вида {"results": [...]}.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		if page.Results == nil {
			return []T{}, nil
		}
		return page.Results, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func list[T any](ctx context.Context, c *Client, sess *model.Session, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, sess, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}
