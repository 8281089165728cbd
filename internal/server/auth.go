package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/session"
)

// adminRole is the only role that unlocks mutations.
const adminRole = "admin"

// claims is the JWT payload for an admin session.
type claims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// loginRequest is the credentials payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the bearer token and the authenticated user.
type loginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// issueToken signs an admin token for the given user.
func (s *Server) issueToken(user session.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			Issuer:    "gacetas",
		},
	})

	signed, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", errs.NewAuthenticationError(user.Username, "failed to sign token")
	}
	return signed, nil
}

// parseToken validates a bearer token and returns its claims.
func (s *Server) parseToken(raw string) (*claims, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.NewAuthenticationError("", "unexpected signing method")
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil {
		return nil, errs.NewAuthenticationError("", "invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errs.NewAuthenticationError("", "invalid token")
	}
	return c, nil
}

// requireAdmin rejects requests without a valid admin bearer token.
// Unauthenticated requests get 401, authenticated non-admins 403.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			writeError(w, r, errs.NewAuthenticationError("", "missing bearer token"))
			return
		}

		c, err := s.parseToken(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if c.Role != adminRole {
			writeError(w, r, errs.NewPermissionError(r.Method+" "+r.URL.Path))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
