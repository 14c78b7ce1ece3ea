package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

func pathID(r *http.Request) model.ID {
	return model.ID(chi.URLParam(r, "id"))
}

// TaskOptions возвращает значения выпадающих фильтров списка заявок.
func (h *Handler) TaskOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	opts, err := h.service.TaskOptions(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, opts)
}

// CreateTask принимает устройство в ремонт.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.NewTaskForm
	if !h.decode(w, r, &form) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), sess, form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, task)
}

// GetTask возвращает заявку.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	task, err := h.service.Task(r.Context(), sess, pathID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, task)
}

type transitionsResponse struct {
	Allowed []model.TaskStatus `json:"allowed"`
}

// Transitions возвращает статусы, доступные роли текущего пользователя.
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	allowed, err := h.service.Transitions(r.Context(), sess, pathID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transitionsResponse{Allowed: allowed})
}

// ChangeStatus переводит заявку в новый статус.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.StatusForm
	if !h.decode(w, r, &form) {
		return
	}

	task, err := h.service.ChangeStatus(r.Context(), sess, pathID(r), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, task)
}

// TaskActivities возвращает журнал работ по заявке.
func (h *Handler) TaskActivities(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	acts, err := h.service.TaskActivities(r.Context(), sess, pathID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListResponse(acts))
}

// AddActivity добавляет заметку к заявке.
func (h *Handler) AddActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.ActivityForm
	if !h.decode(w, r, &form) {
		return
	}

	act, err := h.service.AddActivity(r.Context(), sess, pathID(r), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, act)
}

// AddPayment регистрирует платёж по заявке.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var form validation.PaymentForm
	if !h.decode(w, r, &form) {
		return
	}

	res, err := h.service.AddPayment(r.Context(), sess, pathID(r), form)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, res)
}

// DeleteTask удаляет заявку.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), sess, pathID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
