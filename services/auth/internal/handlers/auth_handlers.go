package handlers

import (
	"net/http"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/services/auth/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Register handles public sign-up. Any role in the body is ignored.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	res, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), identity(r))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) ListTrainers(w http.ResponseWriter, r *http.Request) {
	trainers, err := h.authService.ListTrainers(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trainers)
}

// Admin handlers

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handlers) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	user, err := h.authService.AdminCreateUser(r.Context(), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user.ToUserInfo())
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := decode(r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	user, err := h.authService.UpdateUser(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.authService.Stats(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
