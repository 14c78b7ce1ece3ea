package listview

import "github.com/mmeshcher/repairdesk/internal/model"

// TaskView описывает списки заявок (все заявки, заявки менеджера, мастерская, история).
var TaskView = NewView("tasks", "created_at",
	Field[model.Task]{Name: "id", Label: "Task ID", Searchable: true, Value: func(t model.Task) any { return t.ID }},
	Field[model.Task]{Name: "title", Label: "Title", Searchable: true, Value: func(t model.Task) any { return t.Title }},
	Field[model.Task]{Name: "customer_name", Label: "Customer", Searchable: true, Value: func(t model.Task) any { return t.CustomerName }},
	Field[model.Task]{Name: "customer_phone", Label: "Phone", Searchable: true, Value: func(t model.Task) any { return t.CustomerPhone }},
	Field[model.Task]{Name: "brand", Label: "Brand", Searchable: true, Filterable: true, Value: func(t model.Task) any { return t.Brand }},
	Field[model.Task]{Name: "laptop_model", Label: "Model", Searchable: true, Value: func(t model.Task) any { return t.LaptopModel }},
	Field[model.Task]{Name: "serial_number", Label: "Serial", Searchable: true, Value: func(t model.Task) any { return t.SerialNumber }},
	Field[model.Task]{Name: "description", Label: "Issue", Searchable: true, Value: func(t model.Task) any { return t.Description }},
	Field[model.Task]{Name: "status", Label: "Status", Filterable: true, Value: func(t model.Task) any { return string(t.Status) }},
	Field[model.Task]{Name: "urgency", Label: "Urgency", Filterable: true, Value: func(t model.Task) any { return string(t.Urgency) }},
	Field[model.Task]{Name: "technician", Label: "Technician", Filterable: true, Value: func(t model.Task) any { return t.AssignedToName }},
	Field[model.Task]{Name: "location", Label: "Location", Filterable: true, Value: func(t model.Task) any { return t.CurrentLocation }},
	Field[model.Task]{Name: "payment_status", Label: "Payment", Filterable: true, Value: func(t model.Task) any { return string(t.PaymentStatus) }},
	Field[model.Task]{Name: "total_cost", Label: "Total", Value: func(t model.Task) any { return t.TotalCost }},
	Field[model.Task]{Name: "date_in", Label: "Date In", Value: func(t model.Task) any { return t.DateIn }},
	Field[model.Task]{Name: "due_date", Label: "Due", Value: func(t model.Task) any { return t.DueDate }},
	Field[model.Task]{Name: "created_at", Label: "Created", Value: func(t model.Task) any { return t.CreatedAt }},
)

// UserView описывает экран управления пользователями.
var UserView = NewView("users", "created_at",
	Field[model.User]{Name: "username", Label: "Username", Searchable: true, Value: func(u model.User) any { return u.Username }},
	Field[model.User]{Name: "full_name", Label: "Name", Searchable: true, Value: func(u model.User) any { return u.FullName() }},
	Field[model.User]{Name: "email", Label: "Email", Searchable: true, Value: func(u model.User) any { return u.Email }},
	Field[model.User]{Name: "phone", Label: "Phone", Searchable: true, Value: func(u model.User) any { return u.Phone }},
	Field[model.User]{Name: "role", Label: "Role", Filterable: true, Value: func(u model.User) any { return string(u.Role) }},
	Field[model.User]{Name: "is_active", Label: "Active", Filterable: true, Value: func(u model.User) any { return u.IsActive }},
	Field[model.User]{Name: "created_at", Label: "Created", Value: func(u model.User) any { return u.CreatedAt }},
	Field[model.User]{Name: "last_login", Label: "Last Login", Value: func(u model.User) any { return u.LastLogin }},
)

// PaymentView описывает экран платежей.
var PaymentView = NewView("payments", "date",
	Field[model.Payment]{Name: "id", Label: "Payment ID", Searchable: true, Value: func(p model.Payment) any { return p.ID }},
	Field[model.Payment]{Name: "task", Label: "Task", Searchable: true, Value: func(p model.Payment) any { return p.TaskID }},
	Field[model.Payment]{Name: "reference", Label: "Reference", Searchable: true, Value: func(p model.Payment) any { return p.Reference }},
	Field[model.Payment]{Name: "processor", Label: "Processor", Searchable: true, Filterable: true, Value: func(p model.Payment) any { return p.Processor }},
	Field[model.Payment]{Name: "method", Label: "Method", Filterable: true, Value: func(p model.Payment) any { return string(p.Method) }},
	Field[model.Payment]{Name: "status", Label: "Status", Filterable: true, Value: func(p model.Payment) any { return string(p.Status) }},
	Field[model.Payment]{Name: "amount", Label: "Amount", Value: func(p model.Payment) any { return p.Amount }},
	Field[model.Payment]{Name: "fee", Label: "Fee", Value: func(p model.Payment) any { return p.Fee }},
	Field[model.Payment]{Name: "net_amount", Label: "Net", Value: func(p model.Payment) any { return p.NetAmount }},
	Field[model.Payment]{Name: "date", Label: "Date", Value: func(p model.Payment) any { return p.Date }},
)

// CustomerView описывает экран клиентов.
var CustomerView = NewView("customers", "created_at",
	Field[model.Customer]{Name: "name", Label: "Name", Searchable: true, Value: func(c model.Customer) any { return c.Name }},
	Field[model.Customer]{Name: "phone", Label: "Phone", Searchable: true, Value: func(c model.Customer) any { return c.Phone }},
	Field[model.Customer]{Name: "email", Label: "Email", Searchable: true, Value: func(c model.Customer) any { return c.Email }},
	Field[model.Customer]{Name: "address", Label: "Address", Searchable: true, Value: func(c model.Customer) any { return c.Address }},
	Field[model.Customer]{Name: "created_at", Label: "Created", Value: func(c model.Customer) any { return c.CreatedAt }},
)

// AuditLogView описывает журнал аудита.
var AuditLogView = NewView("audit-log", "timestamp",
	Field[model.AuditLogEntry]{Name: "timestamp", Label: "Timestamp", Value: func(e model.AuditLogEntry) any { return e.Timestamp }},
	Field[model.AuditLogEntry]{Name: "actor", Label: "User", Searchable: true, Filterable: true, Value: func(e model.AuditLogEntry) any { return e.Actor }},
	Field[model.AuditLogEntry]{Name: "action", Label: "Action", Searchable: true, Filterable: true, Value: func(e model.AuditLogEntry) any { return e.Action }},
	Field[model.AuditLogEntry]{Name: "task_id", Label: "Task", Searchable: true, Value: func(e model.AuditLogEntry) any { return e.TaskID }},
	Field[model.AuditLogEntry]{Name: "old_value", Label: "Old Value", Searchable: true, Value: func(e model.AuditLogEntry) any { return e.OldValue }},
	Field[model.AuditLogEntry]{Name: "new_value", Label: "New Value", Searchable: true, Value: func(e model.AuditLogEntry) any { return e.NewValue }},
	Field[model.AuditLogEntry]{Name: "severity", Label: "Severity", Filterable: true, Value: func(e model.AuditLogEntry) any { return e.Severity }},
)

// SystemLogView описывает системный журнал.
var SystemLogView = NewView("system-log", "timestamp",
	Field[model.SystemLogEntry]{Name: "timestamp", Label: "Timestamp", Value: func(e model.SystemLogEntry) any { return e.Timestamp }},
	Field[model.SystemLogEntry]{Name: "level", Label: "Level", Filterable: true, Value: func(e model.SystemLogEntry) any { return e.Level }},
	Field[model.SystemLogEntry]{Name: "source", Label: "Source", Searchable: true, Filterable: true, Value: func(e model.SystemLogEntry) any { return e.Source }},
	Field[model.SystemLogEntry]{Name: "message", Label: "Message", Searchable: true, Value: func(e model.SystemLogEntry) any { return e.Message }},
)
