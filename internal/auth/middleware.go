package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mkarrel/kinotek/internal/httputil"
)

type contextKey string

const ContextUser contextKey = "user"

type ContextUserData struct {
	UserID uuid.UUID
	Role   string
}

type Middleware struct {
	svc *Service
}

func NewMiddleware(svc *Service) *Middleware {
	return &Middleware{svc: svc}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "authentication required")
			return
		}
		claims, err := m.svc.ValidateToken(token)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ContextUser, ContextUserData{
			UserID: claims.UserID,
			Role:   claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || user.Role != RoleAdmin {
			httputil.WriteError(w, http.StatusForbidden, httputil.CodeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(ContextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}
