package handlers

import (
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req domain.SetAvailabilityRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	a, err := h.availabilityService.Set(r.Context(), identity(r), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	list, err := h.availabilityService.Get(r.Context(), chi.URLParam(r, "trainerId"), r.URL.Query().Get("date"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
