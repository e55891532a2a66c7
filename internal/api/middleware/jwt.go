package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// authEnvelope matches the api package's envelope format for error
// responses raised from middleware, before a handler ever runs.
type authEnvelope struct {
	Error string `json:"error,omitempty"`
}

type adminContextKey string

const adminSubjectKey adminContextKey = "admin_subject"

// AdminTokenTTL is the lifetime of an issued admin JWT.
const AdminTokenTTL = 24 * time.Hour

// AdminClaims holds the JWT claims for the admin REST surface. The
// admin auth gate is intentionally minimal: one shared
// secret, no per-user roles, no refresh flow.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// GenerateAdminToken issues a signed JWT asserting the bearer is
// authorized to use the admin REST surface.
func GenerateAdminToken(secret []byte, subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(AdminTokenTTL)

	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "xmlcurld",
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// RequireAdminAuth returns middleware that validates a bearer JWT
// signed with secret, gating the admin REST surface. On success the
// claim subject is stored in the request context.
func RequireAdminAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				slog.Debug("admin auth: invalid jwt", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSubjectFromContext retrieves the authenticated admin subject
// from the request context. Returns "" if not set.
func AdminSubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(adminSubjectKey).(string)
	return s
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(authEnvelope{Error: msg}) //nolint:errcheck
}
