package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/repairdesk/internal/billing"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// Technicians возвращает активных техников.
func (h *Handler) Technicians(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	users, err := h.service.Technicians(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(users))
}

// GetUser возвращает учётную запись сотрудника.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	user, err := h.service.User(r.Context(), sess, pathID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// CreateUser создаёт учётную запись сотрудника.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.UserForm
	if !h.decode(w, r, &form) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), sess, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// UpdateUser изменяет учётную запись сотрудника.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.UserForm
	if !h.decode(w, r, &form) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), sess, pathID(r), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) setUserActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.session(w, r)
		if !ok {
			return
		}

		if err := h.service.SetUserActive(r.Context(), sess, pathID(r), active); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteUser удаляет учётную запись сотрудника.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), sess, pathID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReconcilePayment применяет к платежу действие сверки из пути запроса.
func (h *Handler) ReconcilePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	action := billing.Action(chi.URLParam(r, "action"))
	p, err := h.service.ReconcilePayment(r.Context(), sess, pathID(r), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// CreateCustomer создаёт клиента.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.CustomerForm
	if !h.decode(w, r, &form) {
		return
	}

	c, err := h.service.CreateCustomer(r.Context(), sess, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// UpdateCustomer изменяет карточку клиента.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.CustomerForm
	if !h.decode(w, r, &form) {
		return
	}

	c, err := h.service.UpdateCustomer(r.Context(), sess, pathID(r), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// Brands возвращает справочник производителей.
func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	brands, err := h.service.Brands(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(brands))
}

// Locations возвращает справочник мест хранения.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	locations, err := h.service.Locations(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(locations))
}

// Report отдаёт отчёт удалённого API за период start_date..end_date.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	form := validation.ReportRangeForm{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	raw, err := h.service.Report(r.Context(), sess, chi.URLParam(r, "name"), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

var (
	staffRoles   = []model.Role{model.RoleAdministrator, model.RoleManager}
	financeRoles = []model.Role{model.RoleAdministrator, model.RoleManager, model.RoleAccountant}
)
