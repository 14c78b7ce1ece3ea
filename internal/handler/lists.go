package handler

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/mmeshcher/repairdesk/internal/export"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/model"
)

type loader[T any] func(ctx context.Context, sess *model.Session, q listview.Query) ([]T, error)

func (h *Handler) query(w http.ResponseWriter, r *http.Request, parse func(url.Values) (listview.Query, error)) (listview.Query, bool) {
	q, err := parse(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return listview.Query{}, false
	}
	return q, true
}

// list строит обработчик экрана списка: параметры запроса разбираются по полям view.
func list[T any](h *Handler, v *listview.View[T], load loader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.session(w, r)
		if !ok {
			return
		}
		q, ok := h.query(w, r, v.ParseQuery)
		if !ok {
			return
		}

		items, err := load(r.Context(), sess, q)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, newListResponse(items))
	}
}

// exportList выгружает текущее отфильтрованное и отсортированное представление в файл.
func exportList[T any](h *Handler, title string, v *listview.View[T], load loader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.session(w, r)
		if !ok {
			return
		}
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		q, ok := h.query(w, r, v.ParseQuery)
		if !ok {
			return
		}

		items, err := load(r.Context(), sess, q)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		now := h.now()
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(v.Name(), now, format)+`"`)
		if err := export.Write(w, format, export.FromView(title, v, items), now); err != nil {
			h.logger.Error("export error", zap.String("view", v.Name()), zap.Error(err))
		}
	}
}

func (h *Handler) auditLog(ctx context.Context, _ *model.Session, q listview.Query) ([]model.AuditLogEntry, error) {
	return h.service.AuditLog(ctx, q)
}

func (h *Handler) systemLog(ctx context.Context, _ *model.Session, q listview.Query) ([]model.SystemLogEntry, error) {
	return h.service.SystemLog(ctx, q)
}
