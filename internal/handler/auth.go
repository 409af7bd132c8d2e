package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/apperr"
	appI18n "github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/i18n"
	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if user == nil || !user.Active {
		respond(w, http.StatusUnauthorized, map[string]string{"error": appI18n.T(r.Context(), "LoginError")})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond(w, http.StatusUnauthorized, map[string]string{"error": appI18n.T(r.Context(), "LoginError")})
		return
	}

	token, err := h.store.CreateAuthToken(user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	slog.Info("user logged in", "username", user.Username, "role", user.Role)
	respond(w, http.StatusOK, loginResponse{Token: token, User: *user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.store.DeleteAuthToken(token); err != nil {
			slog.Error("failed to delete auth token", "error", err)
		}
	}
	respond(w, http.StatusNoContent, nil)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// requireAuth is middleware that resolves the bearer token to a user.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.respondError(w, r, apperr.ErrUnauthorized)
			return
		}

		authToken, err := h.store.GetAuthToken(token)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		if authToken == nil {
			h.respondError(w, r, apperr.ErrUnauthorized)
			return
		}

		user, err := h.store.GetUserByID(authToken.UserID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		if user == nil || !user.Active {
			h.respondError(w, r, apperr.ErrUnauthorized)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": apperr.ErrUnauthorized.Error()})
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond(w, http.StatusForbidden, map[string]string{"error": apperr.ErrForbidden.Error()})
		})
	}
}
