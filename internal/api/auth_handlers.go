package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/domain/user"
)

// AuthHandlers serves registration, login and token refresh. Tokens are
// returned in the response body; clients send them back as bearer tokens.
type AuthHandlers struct {
	userService *user.Service
	jwtService  *auth.JWTService
}

func NewAuthHandlers(userService *user.Service, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{userService: userService, jwtService: jwtService}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthResponse struct {
	User   *user.User `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tokens, err := h.issueTokens(u)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusCreated, AuthResponse{User: u, Tokens: tokens})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tokens, err := h.issueTokens(u)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, AuthResponse{User: u, Tokens: tokens})
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	u, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	tokens, err := h.issueTokens(u)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, AuthResponse{User: u, Tokens: tokens})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, u)
}

func (h *AuthHandlers) issueTokens(u *user.User) (TokenPair, error) {
	accessToken, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, _, err := h.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
