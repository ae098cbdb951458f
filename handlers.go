package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// App carries everything a handler needs. One App is built at startup and
// shared by all requests.
type App struct {
	store       Store
	accounts    *AccountService
	sessions    *SessionManager
	authLimiter *clientLimiter
	staticDir   string
	now         func() time.Time
}

func newApp(store Store, accounts *AccountService, sessions *SessionManager, limiter *clientLimiter, staticDir string) *App {
	return &App{
		store:       store,
		accounts:    accounts,
		sessions:    sessions,
		authLimiter: limiter,
		staticDir:   staticDir,
		now:         time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with a generic message plus, when available, the
// underlying error text.
func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// storeError maps a store failure onto a response and logs unexpected ones.
func storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "Record not found", nil)
		return
	}
	slog.Error(msg, "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, msg, err)
}

// Authentication gate

func (a *App) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, principal := a.sessions.Resolve(w, r)
		switch state {
		case AuthLoading:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"state": state.String()})
			return
		case AuthUnauthenticated:
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		next(w, r.WithContext(withPrincipal(r.Context(), principal)))
	}
}

// requirePage guards browser pages: unauthenticated visitors go to /login.
func (a *App) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, principal := a.sessions.Resolve(w, r)
		switch state {
		case AuthLoading:
			http.Error(w, "Loading...", http.StatusServiceUnavailable)
			return
		case AuthUnauthenticated:
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r.WithContext(withPrincipal(r.Context(), principal)))
	}
}

// Pages

func (a *App) homeHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (a *App) pageHandler(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(a.staticDir, page+".html"))
	}
}

// Authentication handlers

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := a.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Failed to authenticate.", nil)
			return
		}
		storeError(w, r, "Login failed", err)
		return
	}

	if err := a.sessions.Start(w, r, user); err != nil {
		slog.Error("could not save session", "err", err)
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *App) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := a.accounts.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			writeError(w, http.StatusConflict, "Registration failed", err)
			return
		}
		storeError(w, r, "Registration failed", err)
		return
	}

	if err := a.sessions.Start(w, r, user); err != nil {
		slog.Error("could not save session", "err", err)
		writeError(w, http.StatusInternalServerError, "Registration failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *App) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.End(w, r); err != nil {
		slog.Error("could not clear session", "err", err)
	}
	w.WriteHeader(http.StatusOK)
}

func (a *App) checkAuthHandler(w http.ResponseWriter, r *http.Request) {
	state, principal := a.sessions.Resolve(w, r)
	switch state {
	case AuthLoading:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"state": state.String()})
		return
	case AuthUnauthenticated:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"state": state.String()})
		return
	}

	user, err := a.store.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			a.sessions.End(w, r)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"state": AuthUnauthenticated.String()})
			return
		}
		storeError(w, r, "Could not load user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": state.String(), "user": user})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (a *App) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := a.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		storeError(w, r, "Failed to send reset email", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the address is registered, reset instructions have been sent.",
	})
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (a *App) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	err := a.accounts.ConfirmPasswordReset(r.Context(), req.Token, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
	case errors.Is(err, errResetTokenInvalid), errors.Is(err, errResetTokenExpired):
		writeError(w, http.StatusBadRequest, "Failed to reset password", err)
	default:
		storeError(w, r, "Failed to reset password", err)
	}
}
