package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// taskDTO повторяет представление заявки в удалённом API: срочность приходит в поле
// priority, исполнитель и бренд вложенными объектами.
type taskDTO struct {
	ID                model.ID        `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Status            string          `json:"status"`
	Priority          string          `json:"priority"`
	Urgency           string          `json:"urgency"`
	AssignedTo        model.ID        `json:"assigned_to"`
	AssignedToDetails *model.User     `json:"assigned_to_details"`
	Customer          model.ID        `json:"customer"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone"`
	CustomerEmail     string          `json:"customer_email"`
	BrandDetails      *model.Brand    `json:"brand_details"`
	DeviceType        string          `json:"device_type"`
	DeviceNotes       string          `json:"device_notes"`
	LaptopModel       string          `json:"laptop_model"`
	SerialNumber      string          `json:"serial_number"`
	EstimatedCost     model.Cents     `json:"estimated_cost"`
	TotalCost         model.Cents     `json:"total_cost"`
	PartsCost         model.Cents     `json:"parts_cost"`
	LaborCost         model.Cents     `json:"labor_cost"`
	PaymentStatus     string          `json:"payment_status"`
	CurrentLocation   string          `json:"current_location"`
	DateIn            string          `json:"date_in"`
	DateOut           string          `json:"date_out"`
	DueDate           string          `json:"due_date"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Payments          []model.Payment `json:"payments"`
}

func (d taskDTO) toTask() model.Task {
	t := model.Task{
		ID:              d.ID,
		Title:           d.Title,
		CustomerID:      d.Customer,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		CustomerEmail:   d.CustomerEmail,
		LaptopModel:     d.LaptopModel,
		SerialNumber:    d.SerialNumber,
		DeviceType:      d.DeviceType,
		DeviceNotes:     d.DeviceNotes,
		Description:     d.Description,
		Status:          model.TaskStatus(d.Status),
		Urgency:         model.Urgency(d.Priority),
		AssignedTo:      d.AssignedTo,
		CurrentLocation: d.CurrentLocation,
		EstimatedCost:   d.EstimatedCost,
		TotalCost:       d.TotalCost,
		PartsCost:       d.PartsCost,
		LaborCost:       d.LaborCost,
		PaymentStatus:   model.PaymentStatus(d.PaymentStatus),
		DateIn:          d.DateIn,
		DateOut:         d.DateOut,
		DueDate:         d.DueDate,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		Payments:        d.Payments,
	}
	if t.Urgency == "" {
		t.Urgency = model.Urgency(d.Urgency)
	}
	if d.AssignedToDetails != nil {
		t.AssignedToName = d.AssignedToDetails.FullName()
	}
	if d.BrandDetails != nil {
		t.Brand = d.BrandDetails.Name
	}
	return t
}

// taskPayload описывает тело создания заявки; срочность передаётся и как priority.
type taskPayload struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Status          string       `json:"status"`
	Priority        string       `json:"priority"`
	Urgency         string       `json:"urgency"`
	AssignedTo      *model.ID    `json:"assigned_to"`
	Customer        *model.ID    `json:"customer,omitempty"`
	CustomerName    string       `json:"customer_name"`
	CustomerPhone   string       `json:"customer_phone"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	LaptopMake      string       `json:"laptop_make,omitempty"`
	LaptopModel     string       `json:"laptop_model"`
	SerialNumber    string       `json:"serial_number"`
	DeviceType      string       `json:"device_type,omitempty"`
	DeviceNotes     string       `json:"device_notes,omitempty"`
	EstimatedCost   *model.Cents `json:"estimated_cost"`
	CurrentLocation string       `json:"current_location"`
	DateIn          string       `json:"date_in"`
	DueDate         string       `json:"due_date,omitempty"`
}

func newTaskPayload(t model.Task) taskPayload {
	p := taskPayload{
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Urgency),
		Urgency:         string(t.Urgency),
		CustomerName:    t.CustomerName,
		CustomerPhone:   t.CustomerPhone,
		CustomerEmail:   t.CustomerEmail,
		LaptopMake:      t.Brand,
		LaptopModel:     t.LaptopModel,
		SerialNumber:    t.SerialNumber,
		DeviceType:      t.DeviceType,
		DeviceNotes:     t.DeviceNotes,
		CurrentLocation: t.CurrentLocation,
		DateIn:          t.DateIn,
		DueDate:         t.DueDate,
	}
	if t.AssignedTo != "" {
		p.AssignedTo = &t.AssignedTo
	}
	if t.CustomerID != "" {
		p.Customer = &t.CustomerID
	}
	if t.EstimatedCost > 0 {
		p.EstimatedCost = &t.EstimatedCost
	}
	return p
}

// TaskUpdate описывает частичное изменение заявки; nil-поля не передаются.
type TaskUpdate struct {
	Status          *model.TaskStatus
	Urgency         *model.Urgency
	CurrentLocation *string
	AssignedTo      *model.ID
	TotalCost       *model.Cents
	PaymentStatus   *model.PaymentStatus
}

func (u TaskUpdate) payload() map[string]any {
	p := make(map[string]any)
	if u.Status != nil {
		p["status"] = *u.Status
	}
	if u.Urgency != nil {
		p["priority"] = *u.Urgency
	}
	if u.CurrentLocation != nil {
		p["current_location"] = *u.CurrentLocation
	}
	if u.AssignedTo != nil {
		p["assigned_to"] = *u.AssignedTo
	}
	if u.TotalCost != nil {
		p["total_cost"] = *u.TotalCost
	}
	if u.PaymentStatus != nil {
		p["payment_status"] = *u.PaymentStatus
	}
	return p
}

func taskPath(id model.ID) string {
	return "/tasks/" + url.PathEscape(id.String()) + "/"
}

// ListTasks возвращает заявки.
func (c *Client) ListTasks(ctx context.Context, sess *model.Session) ([]model.Task, error) {
	dtos, err := list[taskDTO](ctx, c, sess, "/tasks/", nil)
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(dtos))
	for _, d := range dtos {
		tasks = append(tasks, d.toTask())
	}
	return tasks, nil
}

// GetTask возвращает заявку по идентификатору.
func (c *Client) GetTask(ctx context.Context, sess *model.Session, id model.ID) (model.Task, error) {
	var d taskDTO
	if err := c.do(ctx, sess, http.MethodGet, taskPath(id), nil, nil, &d); err != nil {
		return model.Task{}, err
	}
	return d.toTask(), nil
}

// CreateTask создаёт заявку.
func (c *Client) CreateTask(ctx context.Context, sess *model.Session, t model.Task) (model.Task, error) {
	var d taskDTO
	if err := c.do(ctx, sess, http.MethodPost, "/tasks/", nil, newTaskPayload(t), &d); err != nil {
		return model.Task{}, err
	}
	return d.toTask(), nil
}

// UpdateTask частично изменяет заявку.
func (c *Client) UpdateTask(ctx context.Context, sess *model.Session, id model.ID, u TaskUpdate) (model.Task, error) {
	var d taskDTO
	if err := c.do(ctx, sess, http.MethodPatch, taskPath(id), nil, u.payload(), &d); err != nil {
		return model.Task{}, err
	}
	return d.toTask(), nil
}

// DeleteTask удаляет заявку.
func (c *Client) DeleteTask(ctx context.Context, sess *model.Session, id model.ID) error {
	return c.do(ctx, sess, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// StatusOptions возвращает статусы, известные удалённому API.
func (c *Client) StatusOptions(ctx context.Context, sess *model.Session) ([]model.TaskStatus, error) {
	var pairs [][]string
	if err := c.do(ctx, sess, http.MethodGet, "/tasks/status-options/", nil, nil, &pairs); err != nil {
		return nil, err
	}
	res := make([]model.TaskStatus, 0, len(pairs))
	for _, p := range pairs {
		if len(p) > 0 {
			res = append(res, model.TaskStatus(p[0]))
		}
	}
	return res, nil
}

type activityDTO struct {
	ID        model.ID    `json:"id"`
	Task      model.ID    `json:"task"`
	User      *model.User `json:"user"`
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

func (d activityDTO) toActivity() model.TaskActivity {
	a := model.TaskActivity{
		ID:        d.ID,
		TaskID:    d.Task,
		Type:      d.Type,
		Message:   d.Message,
		Timestamp: d.Timestamp,
	}
	if d.User != nil {
		a.User = d.User.FullName()
	}
	return a
}

// TaskActivities возвращает журнал работ по заявке.
func (c *Client) TaskActivities(ctx context.Context, sess *model.Session, id model.ID) ([]model.TaskActivity, error) {
	dtos, err := list[activityDTO](ctx, c, sess, taskPath(id)+"activities/", nil)
	if err != nil {
		return nil, err
	}
	res := make([]model.TaskActivity, 0, len(dtos))
	for _, d := range dtos {
		res = append(res, d.toActivity())
	}
	return res, nil
}

// AddActivity добавляет запись в журнал работ по заявке.
func (c *Client) AddActivity(ctx context.Context, sess *model.Session, id model.ID, kind, message string) (model.TaskActivity, error) {
	body := map[string]string{"type": kind, "message": message}

	var d activityDTO
	if err := c.do(ctx, sess, http.MethodPost, taskPath(id)+"add-activity/", nil, body, &d); err != nil {
		return model.TaskActivity{}, err
	}
	return d.toActivity(), nil
}

// AddPayment добавляет платёж к заявке.
func (c *Client) AddPayment(ctx context.Context, sess *model.Session, id model.ID, p model.Payment) (model.Payment, error) {
	body := map[string]any{
		"amount":    p.Amount,
		"method":    p.Method,
		"reference": p.Reference,
	}
	if p.Date != "" {
		body["date"] = p.Date
	}

	var res model.Payment
	if err := c.do(ctx, sess, http.MethodPost, taskPath(id)+"add-payment/", nil, body, &res); err != nil {
		return model.Payment{}, err
	}
	return res, nil
}
