package api

import (
	"errors"
	"net/http"
	"time"

	appotel "storefront/pkg/otel"
	"storefront/pkg/session"
	"storefront/pkg/user"
	"storefront/pkg/validation"
)

// loginRequest represents login credentials.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse wraps the account returned by auth endpoints.
type userResponse struct {
	User user.User `json:"user"`
}

// signup registers a customer account.
// @Summary Sign up
// @Accept json
// @Produce json
// @Param body body user.Registration true "Account"
// @Success 201 {object} userResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /auth/signup [post]
func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.signup")
	defer span.End()

	var req user.Registration
	if err := decode(w, r, &req); err != nil {
		h.fail(ctx, w, "signup", err)
		return
	}
	u, err := h.Users.Register(ctx, req)
	if err != nil {
		h.fail(ctx, w, "signup", err)
		return
	}
	h.Log.Info(ctx, "user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, userResponse{User: u})
}

// login checks credentials and sets the session cookie.
// @Summary Login
// @Description Authenticates user and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.login")
	defer span.End()

	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(ctx, w, "login", err)
		return
	}
	var c validation.Collector
	c.Require("email", req.Email != "")
	c.Require("password", req.Password != "")
	if err := c.Err(); err != nil {
		h.fail(ctx, w, "login", err)
		return
	}

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.Log.Warn(ctx, "login rejected")
		}
		h.fail(ctx, w, "login", err)
		return
	}

	now := time.Now()
	sid, err := h.Sessions.Create(ctx, session.Session{UserID: u.ID, Role: string(u.Role), CreatedAt: now.UTC()})
	if err != nil {
		h.fail(ctx, w, "create session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  now.Add(h.SessionTTL),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

// logout ends the current session.
// @Summary Logout
// @Success 204
// @Security SessionCookie
// @Router /auth/logout [post]
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.logout")
	defer span.End()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := h.Sessions.Delete(ctx, c.Value); err != nil {
			h.fail(ctx, w, "delete session", err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me returns the logged-in account.
// @Summary Current user
// @Produce json
// @Success 200 {object} userResponse
// @Failure 401 {object} errorResponse
// @Security SessionCookie
// @Router /auth/me [get]
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.me")
	defer span.End()

	s, _ := sessionFrom(ctx)
	u, err := h.Users.Get(ctx, s.UserID)
	if errors.Is(err, user.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		h.fail(ctx, w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}
