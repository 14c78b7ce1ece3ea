// Package model содержит доменные сущности сервиса repairdesk.
package model

import (
	"errors"
	"strings"
	"time"
)

// Role описывает роль пользователя мастерской.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleManager       Role = "Manager"
	RoleTechnician    Role = "Technician"
	RoleFrontDesk     Role = "Front Desk"
	RoleAccountant    Role = "Accountant"
)

// TaskStatus описывает состояние заявки на ремонт. Набор значений открыт:
// удалённый API может вернуть статус, которого нет в списке ниже.
type TaskStatus string

const (
	TaskStatusPending        TaskStatus = "Pending"
	TaskStatusInProgress     TaskStatus = "In Progress"
	TaskStatusAwaitingParts  TaskStatus = "Awaiting Parts"
	TaskStatusReadyForQC     TaskStatus = "Ready for QC"
	TaskStatusCompleted      TaskStatus = "Completed"
	TaskStatusReadyForPickup TaskStatus = "Ready for Pickup"
	TaskStatusPickedUp       TaskStatus = "Picked Up"
	TaskStatusCancelled      TaskStatus = "Cancelled"
)

// Terminal сообщает, является ли статус конечным.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCancelled, TaskStatusPickedUp:
		return true
	}
	return false
}

// Urgency описывает срочность заявки.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// PaymentStatus описывает состояние оплаты заявки. Вычисляется по платежам, см. пакет billing.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "Unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusFullyPaid     PaymentStatus = "Fully Paid"
	PaymentStatusRefunded      PaymentStatus = "Refunded"
)

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodDigitalWallet PaymentMethod = "digital_wallet"
	PaymentMethodCheck         PaymentMethod = "check"
)

// PaymentState описывает состояние отдельного платежа.
type PaymentState string

const (
	PaymentStateCompleted PaymentState = "completed"
	PaymentStatePending   PaymentState = "pending"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

// Task описывает заявку на ремонт ноутбука.
type Task struct {
	ID              ID            `json:"id"`
	Title           string        `json:"title"`
	CustomerID      ID            `json:"customer_id,omitempty"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	Brand           string        `json:"brand,omitempty"`
	LaptopModel     string        `json:"laptop_model"`
	SerialNumber    string        `json:"serial_number"`
	DeviceType      string        `json:"device_type,omitempty"`
	DeviceNotes     string        `json:"device_notes,omitempty"`
	Description     string        `json:"description"`
	Status          TaskStatus    `json:"status"`
	Urgency         Urgency       `json:"urgency"`
	AssignedTo      ID            `json:"assigned_to,omitempty"`
	AssignedToName  string        `json:"assigned_to_name,omitempty"`
	CurrentLocation string        `json:"current_location"`
	EstimatedCost   Cents         `json:"estimated_cost"`
	TotalCost       Cents         `json:"total_cost"`
	PartsCost       Cents         `json:"parts_cost"`
	LaborCost       Cents         `json:"labor_cost"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	DateIn          string        `json:"date_in,omitempty"`
	DateOut         string        `json:"date_out,omitempty"`
	DueDate         string        `json:"due_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Payments        []Payment     `json:"payments,omitempty"`
}

// TaskActivity описывает запись в журнале работ по заявке.
type TaskActivity struct {
	ID        ID        `json:"id,omitempty"`
	TaskID    ID        `json:"task,omitempty"`
	User      string    `json:"user,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Payment описывает платёж по заявке.
type Payment struct {
	ID        ID            `json:"id"`
	TaskID    ID            `json:"task"`
	Amount    Cents         `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentState  `json:"status"`
	Fee       Cents         `json:"fee"`
	NetAmount Cents         `json:"net_amount"`
	Processor string        `json:"processor,omitempty"`
	Reference string        `json:"reference,omitempty"`
	Date      string        `json:"date"`
}

// User описывает учётную запись сотрудника.
type User struct {
	ID         ID        `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsWorkshop bool      `json:"is_workshop"`
	CreatedAt  time.Time `json:"created_at"`
	LastLogin  time.Time `json:"last_login"`
}

// FullName возвращает имя и фамилию пользователя.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Customer описывает клиента мастерской.
type Customer struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Brand описывает производителя устройства.
type Brand struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Location описывает место хранения устройства в мастерской.
type Location struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// AuditLogEntry описывает неизменяемую запись журнала аудита.
type AuditLogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	TaskID    ID        `json:"task_id,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Severity  string    `json:"severity"`
}

// SystemLogEntry описывает неизменяемую запись системного журнала.
type SystemLogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
}

// ErrSessionNotFound означает, что сессии нет в хранилище или срок её действия истёк.
var ErrSessionNotFound = errors.New("session not found")

// Session описывает аутентифицированную сессию пользователя и токены удалённого API.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
