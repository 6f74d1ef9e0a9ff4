package handler

import (
	"net/http"

	"github.com/YannKr/certgen/internal/auth"
)

// RequireToken checks the bearer token against the configured bcrypt hash.
// With no hash configured the API is open.
func (h *Handler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Cfg.AuthTokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		tok, ok := auth.BearerToken(r)
		if !ok || !auth.CheckToken(h.Cfg.AuthTokenHash, tok) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="certgen"`)
			renderJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithAuthenticated(r.Context())))
	})
}
