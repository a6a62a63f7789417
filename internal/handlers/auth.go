package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/users"
)

type AuthHandler struct {
	users        *users.Service
	tokens       *auth.TokenManager
	revoker      auth.Revoker
	secureCookie bool
}

func NewAuthHandler(users *users.Service, tokens *auth.TokenManager, revoker auth.Revoker, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, revoker: revoker, secureCookie: secureCookie}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusCreated, user)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteError(w, r, apperr.Validation("Email and password are required"))
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusOK, user)
}

// Logout revokes the presented token and clears the cookie. It succeeds
// without a valid token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if c, err := h.tokens.Authenticate(token); err == nil {
			if err := h.revoker.RevokeToken(r.Context(), c.ID, h.tokens.Remaining(c)); err != nil {
				middleware.WriteError(w, r, apperr.Store("revoke token", err))
				return
			}
			zerolog.Ctx(r.Context()).Info().Int("user_id", c.UserID).Msg("user logged out")
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	respondMessage(w, r, "Logged out")
}

// Me returns the caller's stored account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), claims(r).UserID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "user", user)
}

// UpdateMe edits the caller's profile
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.Profile
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), claims(r).UserID, req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "user", user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, _, err := h.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		middleware.WriteError(w, r, apperr.Store("generate token", err))
		return
	}

	http.SetCookie(w, h.cookie(token, int(h.tokens.TTL().Seconds())))
	middleware.JSONResponse(w, r, status, AuthResponse{Success: true, Token: token, User: user})
	zerolog.Ctx(r.Context()).Info().Int("user_id", user.ID).Msg("session started")
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
