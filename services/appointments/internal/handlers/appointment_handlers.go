package handlers

import (
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	var req domain.BookRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	appt, err := h.appointmentService.Book(r.Context(), identity(r), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *Handlers) ListMine(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointmentService.ListForUser(r.Context(), identity(r).ID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *Handlers) ListForTrainer(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointmentService.ListForTrainer(r.Context(), identity(r).ID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	appt, err := h.appointmentService.UpdateStatus(r.Context(), identity(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointmentService.Cancel(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handlers) AdminListAll(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointmentService.AdminListAll(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *Handlers) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminCreateRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	appt, err := h.appointmentService.AdminCreate(r.Context(), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *Handlers) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminUpdateRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	appt, err := h.appointmentService.AdminUpdate(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handlers) AdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.appointmentService.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment removed"})
}
