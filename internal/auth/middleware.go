package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type ContextKey string

const subjectKey ContextKey = "host-subject"

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongScope   = errors.New("token scope is not a host scope")
)

type Opts struct {
	Logger    *slog.Logger
	JWTSecret []byte
}

func (ao *Opts) secret(*jwt.Token) (any, error) {
	return ao.JWTSecret, nil
}

// Required rejects any request without a valid host bearer token. The token
// subject is stored in the request context.
func Required(opts *Opts) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := getRawToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrAuthRequired)
				return
			}
			sub, err := opts.Verify(raw)
			if err != nil {
				opts.Logger.WarnContext(r.Context(), "rejected host token", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, ErrInvalidToken)
				return
			}
			ctx := storeSubject(r.Context(), sub)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Verify parses a raw host token and returns its subject.
func (ao *Opts) Verify(raw string) (string, error) {
	claims := make(jwt.MapClaims)
	tok, err := jwt.ParseWithClaims(
		raw, &claims, ao.secret,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse token")
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	scope, ok := claims["scope"].(string)
	if !ok || Scope(scope) != ScopeHost {
		return "", ErrWrongScope
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", errors.Wrap(err, "jwt claims has no sub")
	}
	if len(sub) == 0 {
		return "", errors.New("jwt claims has an empty sub")
	}
	return sub, nil
}

func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

func storeSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}

func getRawToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) == 0 {
		return "", false
	}
	h = string(unicode.ToLower(rune(h[0]))) + h[1:]
	v, found := strings.CutPrefix(h, "bearer ")
	if !found || len(v) == 0 {
		return "", false
	}
	return v, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "auth_required",
		"message": err.Error(),
	})
}
