package middleware

import (
	"net/http"
	"strings"

	"github.com/gosuda/hq/internal/auth"
)

// Auth validates the bearer access token from the Authorization header and
// stores the caller's tenant, user and role in the request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, bearerToken)
}

// AuthWebSocket is Auth for WebSocket upgrades. Browsers cannot set headers
// on the handshake, so the token may also arrive as ?access_token=. Mount it
// on the /ws routes only; query strings end up in access logs.
func AuthWebSocket(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, func(r *http.Request) string {
		if tok := bearerToken(r); tok != "" {
			return tok
		}
		return r.URL.Query().Get("access_token")
	})
}

func authenticate(jwtSecret string, token func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := token(r)
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			id, err := auth.ParseAccessToken(jwtSecret, tok)
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
