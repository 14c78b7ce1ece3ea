package validation

import (
	"slices"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// Типы устройств, для которых обязательны заметки о комплектности.
var partialDeviceTypes = []string{"Not Full", "Motherboard Only"}

var (
	urgencies = []model.Urgency{model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh}
	roles     = []model.Role{
		model.RoleAdministrator, model.RoleManager, model.RoleTechnician,
		model.RoleFrontDesk, model.RoleAccountant,
	}
	methods = []model.PaymentMethod{
		model.PaymentMethodCash, model.PaymentMethodCard, model.PaymentMethodBankTransfer,
		model.PaymentMethodDigitalWallet, model.PaymentMethodCheck,
	}
)

// LoginForm описывает форму входа.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate проверяет форму входа.
func (f LoginForm) Validate() Errors {
	e := Errors{}
	Required(e, "username", f.Username, "Username is required.")
	Required(e, "password", f.Password, "Password is required.")
	return e
}

// NewTaskForm описывает форму приёма устройства в ремонт.
type NewTaskForm struct {
	Title           string        `json:"title"`
	CustomerID      model.ID      `json:"customer_id"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerEmail   string        `json:"customer_email"`
	Brand           string        `json:"brand"`
	LaptopModel     string        `json:"laptop_model"`
	SerialNumber    string        `json:"serial_number"`
	DeviceType      string        `json:"device_type"`
	DeviceNotes     string        `json:"device_notes"`
	Description     string        `json:"description"`
	Urgency         model.Urgency `json:"urgency"`
	CurrentLocation string        `json:"current_location"`
	AssignedTo      model.ID      `json:"assigned_to"`
	EstimatedCost   model.Cents   `json:"estimated_cost"`
	DateIn          string        `json:"date_in"`
	DueDate         string        `json:"due_date"`
}

// Validate проверяет форму новой заявки.
func (f NewTaskForm) Validate() Errors {
	e := Errors{}
	Required(e, "customer_name", f.CustomerName, "Customer name is required")
	Phone(e, "customer_phone", f.CustomerPhone)
	Email(e, "customer_email", f.CustomerEmail)
	Required(e, "serial_number", f.SerialNumber, "Laptop serial number is required")
	if Required(e, "description", f.Description, "Issue description is required") {
		MinLength(e, "description", f.Description, 10, "Issue description must be at least 10 characters")
	}
	if !slices.Contains(urgencies, f.Urgency) {
		e.add("urgency", "Please select an urgency level")
	}
	Required(e, "current_location", f.CurrentLocation, "Please select a current location")
	RequiredWhen(e, "device_notes", f.DeviceNotes, f.DeviceType, partialDeviceTypes,
		"Device notes are required for incomplete devices")
	if f.EstimatedCost < 0 {
		e.add("estimated_cost", "Estimated cost cannot be negative")
	}
	DateRange(e, "date_in", f.DateIn, "due_date", f.DueDate)
	return e
}

// CustomerForm описывает форму клиента.
type CustomerForm struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Validate проверяет форму клиента.
func (f CustomerForm) Validate() Errors {
	e := Errors{}
	Required(e, "name", f.Name, "Customer name is required")
	Phone(e, "phone", f.Phone)
	Email(e, "email", f.Email)
	return e
}

// UserForm описывает форму создания и изменения пользователя.
type UserForm struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone"`
	Role       model.Role `json:"role"`
	IsWorkshop bool       `json:"is_workshop"`
	Password   string     `json:"password,omitempty"`
}

// Validate проверяет форму нового пользователя: пароль обязателен.
func (f UserForm) Validate() Errors {
	e := f.ValidateUpdate()
	if Required(e, "password", f.Password, "Password is required") {
		MinLength(e, "password", f.Password, 8, "Password must be at least 8 characters")
	}
	return e
}

// ValidateUpdate проверяет форму изменения пользователя: пустой пароль оставляет прежний.
func (f UserForm) ValidateUpdate() Errors {
	e := Errors{}
	Required(e, "username", f.Username, "Username is required")
	if Required(e, "email", f.Email, "Email is required") {
		Email(e, "email", f.Email)
	}
	Required(e, "first_name", f.FirstName, "First name is required")
	Required(e, "last_name", f.LastName, "Last name is required")
	if f.Phone != "" {
		Phone(e, "phone", f.Phone)
	}
	if !slices.Contains(roles, f.Role) {
		e.add("role", "Please select a role")
	}
	if f.Password != "" {
		MinLength(e, "password", f.Password, 8, "Password must be at least 8 characters")
	}
	return e
}

// ProfileForm описывает форму профиля текущего пользователя.
type ProfileForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Validate проверяет форму профиля.
func (f ProfileForm) Validate() Errors {
	e := Errors{}
	Required(e, "first_name", f.FirstName, "First name is required")
	Required(e, "last_name", f.LastName, "Last name is required")
	if Required(e, "email", f.Email, "Email is required") {
		Email(e, "email", f.Email)
	}
	if f.Phone != "" {
		Phone(e, "phone", f.Phone)
	}
	return e
}

// PasswordForm описывает форму смены пароля.
type PasswordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate проверяет форму смены пароля.
func (f PasswordForm) Validate() Errors {
	e := Errors{}
	Required(e, "current_password", f.CurrentPassword, "Current password is required")
	if Required(e, "new_password", f.NewPassword, "New password is required") {
		MinLength(e, "new_password", f.NewPassword, 8, "Password must be at least 8 characters")
	}
	if f.NewPassword != f.ConfirmPassword {
		e.add("confirm_password", "Passwords do not match")
	}
	return e
}

// PaymentForm описывает форму добавления платежа по заявке.
type PaymentForm struct {
	Amount    model.Cents         `json:"amount"`
	Method    model.PaymentMethod `json:"method"`
	Reference string              `json:"reference"`
	Date      string              `json:"date"`
}

// Validate проверяет форму платежа.
func (f PaymentForm) Validate() Errors {
	e := Errors{}
	PositiveAmount(e, "amount", f.Amount)
	if !slices.Contains(methods, f.Method) {
		e.add("method", "Please select a payment method")
	}
	Date(e, "date", f.Date, "Date must be in format YYYY-MM-DD")
	return e
}

// ActivityForm описывает заметку к заявке.
type ActivityForm struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Validate проверяет заметку.
func (f ActivityForm) Validate() Errors {
	e := Errors{}
	Required(e, "message", f.Message, "Message is required")
	return e
}

// StatusForm описывает запрос на смену статуса заявки.
type StatusForm struct {
	Status model.TaskStatus `json:"status"`
}

// Validate проверяет запрос на смену статуса.
func (f StatusForm) Validate() Errors {
	e := Errors{}
	Required(e, "status", string(f.Status), "Please select a status")
	return e
}

// ReportRangeForm описывает диапазон дат отчёта.
type ReportRangeForm struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Validate проверяет диапазон дат отчёта.
func (f ReportRangeForm) Validate() Errors {
	e := Errors{}
	DateRange(e, "start_date", f.StartDate, "end_date", f.EndDate)
	return e
}
