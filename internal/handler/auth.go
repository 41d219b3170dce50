package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/socio/socio-go/internal/crypto"
	"github.com/socio/socio-go/internal/middleware"
	"github.com/socio/socio-go/internal/model"
	"github.com/socio/socio-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /api/v1/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrPasswordRequired),
			errors.Is(err, crypto.ErrPasswordTooLong):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
		default:
			internalError(w, r, "register", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/v1/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
			return
		}
		internalError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/v1/auth/me requests. It answers from the token alone.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	writeJSON(w, http.StatusOK, model.MeResponse{
		User: model.Identity{ID: identity.UserID, Email: identity.Email},
	})
}

// HandleLookup handles GET /api/v1/users/lookup?email= requests.
func (h *AuthHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("email query parameter is required"))
		return
	}

	user, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		internalError(w, r, "lookup user", err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}
