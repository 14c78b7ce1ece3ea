package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/repairdesk/internal/model"
)

func TestIsPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{name: "spaced", phone: "0712 345 678", valid: true},
		{name: "compact", phone: "0712345678", valid: true},
		{name: "partly spaced", phone: "0712345 678", valid: true},
		{name: "short local", phone: "555-1234", valid: false},
		{name: "no leading zero", phone: "712 345 678", valid: false},
		{name: "too long", phone: "07123456789", valid: false},
		{name: "letters", phone: "07l2 345 678", valid: false},
		{name: "empty", phone: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPhone(tt.phone); got != tt.valid {
				t.Fatalf("IsPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("alice@example.com"))
	assert.False(t, IsEmail("alice@"))
	assert.False(t, IsEmail(""))
}

func validTask() NewTaskForm {
	return NewTaskForm{
		CustomerName:    "Alice Otieno",
		CustomerPhone:   "0712 345 678",
		SerialNumber:    "SN-123",
		Description:     "Screen flickers after boot",
		Urgency:         model.UrgencyHigh,
		CurrentLocation: "Front Desk",
		DeviceType:      "Full",
	}
}

func TestNewTaskForm(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *NewTaskForm)
		fields []string
	}{
		{name: "valid", modify: func(f *NewTaskForm) {}},
		{name: "blank name", modify: func(f *NewTaskForm) { f.CustomerName = "   " }, fields: []string{"customer_name"}},
		{name: "bad phone", modify: func(f *NewTaskForm) { f.CustomerPhone = "555-1234" }, fields: []string{"customer_phone"}},
		{name: "bad email", modify: func(f *NewTaskForm) { f.CustomerEmail = "nope" }, fields: []string{"customer_email"}},
		{name: "short description", modify: func(f *NewTaskForm) { f.Description = "broken" }, fields: []string{"description"}},
		{name: "no urgency", modify: func(f *NewTaskForm) { f.Urgency = "" }, fields: []string{"urgency"}},
		{
			name:   "partial device needs notes",
			modify: func(f *NewTaskForm) { f.DeviceType = "Motherboard Only" },
			fields: []string{"device_notes"},
		},
		{
			name: "partial device with notes",
			modify: func(f *NewTaskForm) {
				f.DeviceType = "Not Full"
				f.DeviceNotes = "No battery, no charger"
			},
		},
		{
			name: "due date before intake",
			modify: func(f *NewTaskForm) {
				f.DateIn = "2025-03-10"
				f.DueDate = "2025-03-01"
			},
			fields: []string{"date_in"},
		},
		{
			name: "several failures",
			modify: func(f *NewTaskForm) {
				f.SerialNumber = ""
				f.CurrentLocation = ""
			},
			fields: []string{"serial_number", "current_location"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validTask()
			tt.modify(&f)

			errs := f.Validate()
			got := make([]string, 0, len(errs))
			for name := range errs {
				got = append(got, name)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"both empty", "", "", false},
		{"only start", "2025-01-01", "", false},
		{"ordered", "2025-01-01", "2025-01-31", false},
		{"same day", "2025-01-01", "2025-01-01", false},
		{"inverted", "2025-02-01", "2025-01-31", true},
		{"malformed", "01/02/2025", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ReportRangeForm{StartDate: tt.start, EndDate: tt.end}.Validate()
			assert.Equal(t, tt.wantErr, !errs.Empty())
		})
	}
}

func TestPasswordForm(t *testing.T) {
	errs := PasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "different1"}.Validate()
	assert.Contains(t, errs, "confirm_password")

	errs = PasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "longenough"}.Validate()
	assert.True(t, errs.Empty())
}

func TestUserForm(t *testing.T) {
	f := UserForm{Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Mwangi", Role: model.RoleTechnician}

	assert.True(t, f.ValidateUpdate().Empty())
	assert.Contains(t, f.Validate(), "password")

	f.Role = "Janitor"
	assert.Contains(t, f.ValidateUpdate(), "role")
}

func TestPaymentForm(t *testing.T) {
	errs := PaymentForm{Amount: 0, Method: "barter"}.Validate()
	assert.Contains(t, errs, "amount")
	assert.Contains(t, errs, "method")

	errs = PaymentForm{Amount: 15000, Method: model.PaymentMethodCash, Date: "2025-03-01"}.Validate()
	assert.True(t, errs.Empty())
}

func TestErrorsErr(t *testing.T) {
	require.NoError(t, Errors{}.Err())

	err := LoginForm{}.Validate().Err()
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Username is required.", verr.Fields["username"])
	assert.Equal(t, "validation failed: password, username", err.Error())
}
