package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"markethub/marketplace/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthorized = errors.New("unauthorized")

// Claims is the bearer token payload. Tokens are issued elsewhere; the
// subject is the user id.
type Claims struct {
	UserType model.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	UserType model.UserType
}

type principalKey struct{}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Verify parses an HS256 token and returns its principal.
func (a *Authenticator) Verify(tokenStr string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", errUnauthorized)
	}
	return Principal{UserID: claims.Subject, UserType: claims.UserType}, nil
}

// Authenticate rejects requests without a valid bearer token.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			writeError(w, fmt.Errorf("%w: missing bearer token", errUnauthorized))
			return
		}

		p, err := a.Verify(tokenStr)
		if err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

// RequireUserType ensures the caller's user_type is one of types.
// Usage: r.With(RequireUserType(model.UserTypeSeller)).Post(...)
func RequireUserType(types ...model.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, errUnauthorized)
				return
			}
			if !slices.Contains(types, p.UserType) {
				writeError(w, fmt.Errorf("%w: user_type %q", errAccessDenied, p.UserType))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
