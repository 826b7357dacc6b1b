package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"playdrive/internal/auth"
	"playdrive/internal/domain/services"
	"playdrive/internal/httputil"
)

// Auth authenticates every request with a bearer token, resolves the owner,
// and lazily provisions the owner's root folder on first contact.
//
// Verified tokens are remembered in the session cache until their expiry
// claim, so repeat requests skip the JWKS round trip while an expired token
// always falls through to the verifier and is rejected there. Websocket
// clients cannot set headers from the browser, so the token is also accepted
// as an access_token query parameter.
func Auth(
	verifier auth.JWTVerifier,
	sessions *auth.SessionCache,
	drive services.DriveService,
	logger *slog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			ownerID, cached := sessions.Lookup(token)
			if !cached {
				claims, err := verifier.VerifyToken(token)
				if err != nil {
					httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				ownerID = claims.Subject
				if claims.ExpiresAt != nil {
					sessions.Store(token, ownerID, claims.ExpiresAt.Time)
				}
			}

			if !sessions.Provisioned(ownerID) {
				if err := drive.EnsureRoot(r.Context(), ownerID); err != nil {
					logger.Error("root folder provisioning failed", "owner_id", ownerID, "error", err)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				sessions.MarkProvisioned(ownerID)
			}

			next.ServeHTTP(w, httputil.WithUserID(r, ownerID))
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token
	}
	return r.URL.Query().Get("access_token")
}
