package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matryer/is"
)

func TestCreateHostToken(t *testing.T) {
	is := is.New(t)
	key := []byte("secret")
	now := time.Now().UTC()
	tok, err := CreateHostToken(&CreateTokenOpts{
		Subject:   "https://neucore.test",
		JWTKey:    key,
		ExpiresIn: time.Hour,
		Now:       &now,
	})
	is.NoErr(err)
	opts := Opts{JWTSecret: key}
	sub, err := opts.Verify(tok)
	is.NoErr(err)
	is.Equal(sub, "https://neucore.test")

	claims := make(jwt.MapClaims)
	_, err = jwt.ParseWithClaims(tok, &claims, opts.secret)
	is.NoErr(err)
	exp, err := claims.GetExpirationTime()
	is.NoErr(err)
	is.Equal(exp.Unix(), now.Add(time.Hour).Unix())

	_, err = CreateHostToken(&CreateTokenOpts{Subject: "x"})
	is.True(err != nil)
	_, err = CreateHostToken(&CreateTokenOpts{JWTKey: key})
	is.True(err != nil)
}

func TestVerify(t *testing.T) {
	is := is.New(t)
	key := []byte("secret")
	opts := Opts{JWTSecret: key}

	// wrong key
	tok, err := CreateHostToken(&CreateTokenOpts{Subject: "host", JWTKey: []byte("other")})
	is.NoErr(err)
	_, err = opts.Verify(tok)
	is.True(err != nil)

	// expired
	past := time.Now().Add(-48 * time.Hour)
	tok, err = CreateHostToken(&CreateTokenOpts{Subject: "host", JWTKey: key, ExpiresIn: time.Hour, Now: &past})
	is.NoErr(err)
	_, err = opts.Verify(tok)
	is.True(err != nil)

	// wrong scope
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope": "com.atproto.access",
		"sub":   "host",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	is.NoErr(err)
	_, err = opts.Verify(tok)
	is.Equal(err, ErrWrongScope)

	// no expiration
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scope": ScopeHost,
		"sub":   "host",
	}).SignedString(key)
	is.NoErr(err)
	_, err = opts.Verify(tok)
	is.True(err != nil)

	// signing method none
	tok, err = jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"scope": ScopeHost,
		"sub":   "host",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	is.NoErr(err)
	_, err = opts.Verify(tok)
	is.True(err != nil)
}

func TestRequired(t *testing.T) {
	is := is.New(t)
	key := []byte("secret")
	opts := Opts{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		JWTSecret: key,
	}
	var subject string
	h := Required(&opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	tok, err := CreateHostToken(&CreateTokenOpts{Subject: "host", JWTKey: key})
	is.NoErr(err)

	for _, tt := range []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic YWRtaW46cGFzcw==", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer not.a.token", http.StatusUnauthorized},
		{"Bearer " + tok, http.StatusNoContent},
		{"bearer " + tok, http.StatusNoContent},
	} {
		subject = ""
		req := httptest.NewRequest("GET", "/", nil)
		if len(tt.header) > 0 {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		is.Equal(rec.Code, tt.status)
		if tt.status == http.StatusNoContent {
			is.Equal(subject, "host")
		} else {
			is.Equal(rec.Header().Get("Content-Type"), "application/json")
			is.Equal(subject, "")
		}
	}
}
