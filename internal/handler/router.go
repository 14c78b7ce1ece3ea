package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mmeshcher/repairdesk/internal/listview"
	custommiddleware "github.com/mmeshcher/repairdesk/internal/middleware"
	"github.com/mmeshcher/repairdesk/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса repairdesk.
func (h *Handler) SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/logout", h.Logout)
				r.Get("/me", h.Me)
				r.Put("/profile", h.UpdateProfile)
				r.Post("/password", h.ChangePassword)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", list(h, listview.TaskView, h.service.Tasks))
				r.Get("/options", h.TaskOptions)
				r.Get("/export", exportList(h, "Tasks", listview.TaskView, h.service.Tasks))
				r.Post("/", h.CreateTask)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetTask)
					r.Get("/transitions", h.Transitions)
					r.Put("/status", h.ChangeStatus)
					r.Get("/activities", h.TaskActivities)
					r.Post("/activities", h.AddActivity)
					r.Post("/payments", h.AddPayment)
					r.With(custommiddleware.RequireRole(staffRoles...)).Delete("/", h.DeleteTask)
				})
			})

			r.Get("/technicians", h.Technicians)

			r.Route("/users", func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(staffRoles...))

				r.Get("/", list(h, listview.UserView, h.service.Users))
				r.Get("/export", exportList(h, "Users", listview.UserView, h.service.Users))
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Post("/{id}/activate", h.setUserActive(true))
				r.Post("/{id}/deactivate", h.setUserActive(false))
				r.Delete("/{id}", h.DeleteUser)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(financeRoles...))

				r.Get("/", list(h, listview.PaymentView, h.service.Payments))
				r.Get("/export", exportList(h, "Payments", listview.PaymentView, h.service.Payments))
				r.Post("/{id}/{action}", h.ReconcilePayment)
			})

			r.Get("/customers", list(h, listview.CustomerView, h.service.Customers))
			r.Post("/customers", h.CreateCustomer)
			r.Put("/customers/{id}", h.UpdateCustomer)
			r.Get("/brands", h.Brands)
			r.Get("/locations", h.Locations)

			r.With(custommiddleware.RequireRole(financeRoles...)).Get("/reports/{name}", h.Report)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(staffRoles...))

				r.Get("/audit-log", list(h, listview.AuditLogView, h.auditLog))
				r.Get("/audit-log/export", exportList(h, "Audit Log", listview.AuditLogView, h.auditLog))
			})

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(model.RoleAdministrator))

				r.Get("/system-log", list(h, listview.SystemLogView, h.systemLog))
				r.Get("/system-log/export", exportList(h, "System Log", listview.SystemLogView, h.systemLog))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return otelhttp.NewHandler(r, "repairdesk")
}
