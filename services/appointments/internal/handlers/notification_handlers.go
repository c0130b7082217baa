package handlers

import (
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notificationService.ListForUser(r.Context(), identity(r).ID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notificationService.MarkRead(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
