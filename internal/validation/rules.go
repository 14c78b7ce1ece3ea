// Package validation содержит правила проверки форм перед отправкой в удалённый API.
//
// Каждая форма возвращает Errors: поле присутствует в результате тогда и только тогда,
// когда его значение не прошло проверку.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/repairdesk/internal/model"
)

var phoneRe = regexp.MustCompile(`^0\s?\d{3}\s?\d{3}\s?\d{3}$`)

var validate = validator.New()

// Errors сопоставляет имя поля и сообщение об ошибке.
type Errors map[string]string

// Empty сообщает, что форма прошла проверку.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Err возвращает *Error, если есть ошибки, и nil иначе.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return &Error{Fields: e}
}

func (e Errors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Error возвращается сервисом, когда форма не прошла проверку.
type Error struct {
	Fields Errors
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// Required проверяет, что значение не пустое после обрезки пробелов.
func Required(e Errors, field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		e.add(field, msg)
		return false
	}
	return true
}

// IsPhone проверяет формат номера телефона: 0712 345 678 или 0712345678.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// Phone проверяет обязательный номер телефона.
func Phone(e Errors, field, value string) {
	if !Required(e, field, value, "Phone number is required") {
		return
	}
	if !IsPhone(strings.TrimSpace(value)) {
		e.add(field, "Phone number must be in format 0712 345 678")
	}
}

// IsEmail проверяет адрес электронной почты.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// Email проверяет необязательный адрес электронной почты: пустое значение допустимо.
func Email(e Errors, field, value string) {
	value = strings.TrimSpace(value)
	if value != "" && !IsEmail(value) {
		e.add(field, "Please enter a valid email address")
	}
}

// MinLength проверяет минимальную длину значения в символах.
func MinLength(e Errors, field, value string, n int, msg string) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		e.add(field, msg)
	}
}

// RequiredWhen требует заполнить поле, если управляющее значение входит в список.
func RequiredWhen(e Errors, field, value, control string, when []string, msg string) {
	if slices.Contains(when, control) {
		Required(e, field, value, msg)
	}
}

// Date проверяет необязательную дату в формате 2006-01-02 и возвращает её разобранное значение.
func Date(e Errors, field, value, msg string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.DateOnly, value)
	if err != nil {
		e.add(field, msg)
		return time.Time{}
	}
	return ts
}

// DateRange проверяет, что начало диапазона не позже конца, когда заданы обе даты.
func DateRange(e Errors, startField, start, endField, end string) {
	from := Date(e, startField, start, "Start date must be in format YYYY-MM-DD")
	to := Date(e, endField, end, "End date must be in format YYYY-MM-DD")
	if from.IsZero() || to.IsZero() {
		return
	}
	if from.After(to) {
		e.add(startField, "Start date cannot be after end date")
	}
}

// PositiveAmount проверяет, что сумма больше нуля.
func PositiveAmount(e Errors, field string, amount model.Cents) {
	if amount <= 0 {
		e.add(field, "Amount must be greater than zero")
	}
}
