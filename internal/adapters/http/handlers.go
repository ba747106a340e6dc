package http

import (
	"context"
	"net/http"

	"github.com/lumengallery/auth-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

// protect reads the bearer credential, validates it, and attaches the claims
// to the request context. Absent, malformed, invalid, and expired tokens all
// fail the request here.
func (h *Handler) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "protect")
			return
		}

		claims, err := h.service.ValidateToken(r.Context(), raw)
		if err != nil {
			writeMappedError(r.Context(), w, "protect", err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin composes after protect and rejects non-admin identities.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeMissingBearerError(r.Context(), w, "require_admin")
			return
		}
		if claims.Role != domain.RoleAdmin {
			writeMappedError(r.Context(), w, "require_admin", domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
