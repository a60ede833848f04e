package handler

import (
	"net/http"

	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	devMode     bool
}

func NewAuthHandler(authService *service.AuthService, devMode bool) *AuthHandler {
	return &AuthHandler{authService: authService, devMode: devMode}
}

// RegisterRoutes mounts the public routes. protected must already carry the
// Authenticator middleware.
func (h *AuthHandler) RegisterRoutes(r chi.Router, protected func(http.Handler) http.Handler) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.With(protected).Get("/me", h.me)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidPayload(w, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidPayload(w, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrUnauthenticated, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.SuccessResponse{Success: true, Data: user})
}
