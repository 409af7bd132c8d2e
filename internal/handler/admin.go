package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

type createUserRequest struct {
	Username    string         `json:"username" validate:"required,min=2"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email" validate:"omitempty,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	Role        model.UserRole `json:"role" validate:"required,oneof=student instructor admin"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  displayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	slog.Info("user created", "user_id", id, "username", req.Username, "role", req.Role)
	respond(w, http.StatusCreated, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if user == nil {
		h.respondError(w, r, apperr.ErrNotFound)
		return
	}

	if err := h.store.SetUserActive(id, !user.Active); err != nil {
		h.respondError(w, r, err)
		return
	}

	user.Active = !user.Active
	respond(w, http.StatusOK, user)
}
