package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/services/appointments/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	appointmentService  service.AppointmentService
	availabilityService service.AvailabilityService
	notificationService service.NotificationService
}

func New(
	appointmentService service.AppointmentService,
	availabilityService service.AvailabilityService,
	notificationService service.NotificationService,
) *Handlers {
	return &Handlers{
		appointmentService:  appointmentService,
		availabilityService: availabilityService,
		notificationService: notificationService,
	}
}

// Routes mounts the appointment, availability and notification APIs. Every
// route requires a session; idem wraps the booking endpoints.
func (h *Handlers) Routes(gate *authz.Gate, idem func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(gate.Authenticate)

	r.Route("/appointments", func(r chi.Router) {
		r.With(idem).Post("/", h.Book)
		r.With(idem).Post("/book", h.Book)
		r.Get("/", h.ListMine)
		r.Get("/trainer", h.ListForTrainer)
		r.Put("/{id}/status", h.UpdateStatus)
		r.Put("/{id}/cancel", h.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(authz.RequireRole(authz.RoleAdmin))
			r.Get("/all", h.AdminListAll)
			r.Post("/admin/create", h.AdminCreate)
			r.Put("/admin/{id}", h.AdminUpdate)
			r.Delete("/{id}", h.AdminDelete)
		})
	})

	r.Route("/availability", func(r chi.Router) {
		r.Post("/", h.SetAvailability)
		r.Get("/{trainerId}", h.GetAvailability)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Put("/{id}", h.MarkRead)
	})
	return r
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid JSON format")
	}
	return nil
}

func identity(r *http.Request) authz.Identity {
	id, _ := authz.FromContext(r.Context())
	return id
}
