package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/services/auth/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	authService service.AuthService
}

func New(authService service.AuthService) *Handlers {
	return &Handlers{authService: authService}
}

// Routes mounts the auth API. limit wraps the public credential endpoints.
func (h *Handlers) Routes(gate *authz.Gate, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.With(limit).Post("/register", h.Register)
	r.With(limit).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(gate.Authenticate)
		r.Get("/me", h.Me)
		r.Get("/trainers", h.ListTrainers)

		r.Group(func(r chi.Router) {
			r.Use(authz.RequireRole(authz.RoleAdmin))
			r.Get("/users", h.ListUsers)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)
			r.Get("/stats", h.Stats)
			r.Post("/admin/create", h.AdminCreateUser)
		})
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
