package api

import (
	"errors"
	"net/http"

	"github.com/mkarrel/kinotek/internal/auth"
	"github.com/mkarrel/kinotek/internal/httputil"
	"github.com/mkarrel/kinotek/internal/users"
)

const minPasswordLen = 8

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "kinotek",
		"version": s.ver.Version,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation, "invalid request body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation,
			"full_name, email, and password are required")
		return
	}
	if len(req.Password) < minPasswordLen {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation,
			"password must be at least 8 characters")
		return
	}

	user, err := s.users.Create(req.FullName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailExists) {
			httputil.WriteError(w, http.StatusConflict, httputil.CodeValidation, "email already registered")
			return
		}
		s.log.Printf("api: register: %v", err)
		httputil.WriteErr(w, err)
		return
	}

	s.issueSession(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation, "invalid request body")
		return
	}

	user, err := s.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized,
				"invalid email or password")
			return
		}
		s.log.Printf("api: login: %v", err)
		httputil.WriteErr(w, err)
		return
	}

	s.issueSession(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) issueSession(w http.ResponseWriter, status int, user users.User) {
	token, err := s.auth.IssueToken(user.ID, user.Role)
	if err != nil {
		s.log.Printf("api: issue token: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.JWTExpiry.Seconds()),
	})

	httputil.WriteJSON(w, status, map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
		"token":   token,
	})
}
