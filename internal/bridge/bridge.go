// Package bridge exposes a neucore.Service to the Neucore host over HTTP.
package bridge

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/harrybrwn/neucore-slack/internal/auth"
	"github.com/harrybrwn/neucore-slack/internal/middleware"
	"github.com/harrybrwn/neucore-slack/neucore"
)

// maxBodySize caps request bodies read from the host.
const maxBodySize = 1 << 20

type Server struct {
	r      chi.Router
	svc    neucore.Service
	logger *slog.Logger
}

type Option func(*options)

type options struct {
	jwtSecret []byte
}

// WithJWTSecret requires every /v1 request to carry a host token signed with
// secret.
func WithJWTSecret(secret []byte) Option {
	return func(o *options) { o.jwtSecret = secret }
}

func New(svc neucore.Service, logger *slog.Logger, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := Server{r: chi.NewRouter(), svc: svc, logger: logger}
	s.r.Use(middleware.NewRequestLogger(logger))
	s.r.Get("/health", s.health)
	s.r.Route("/v1", func(r chi.Router) {
		if len(o.jwtSecret) > 0 {
			r.Use(auth.Required(&auth.Opts{Logger: logger, JWTSecret: o.jwtSecret}))
		}
		r.Post("/accounts", s.getAccounts)
		r.Post("/register", s.register)
		r.Get("/search", s.search)
		r.Post("/accounts/update", s.updateAccount)
		r.Post("/players/update", s.updatePlayerAccount)
		r.Post("/accounts/move", s.moveServiceAccount)
		r.Post("/password/reset", s.resetPassword)
		r.Get("/accounts/all", s.getAllAccounts)
		r.Get("/players/all", s.getAllPlayerAccounts)
	})
	return &s
}

// Router returns the internal router.
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

type accountsRequest struct {
	Characters []neucore.Character `json:"characters"`
	Groups     []neucore.Group     `json:"groups"`
}

type registerRequest struct {
	Character       neucore.Character `json:"character"`
	Groups          []neucore.Group   `json:"groups"`
	Email           string            `json:"email"`
	AllCharacterIDs []int64           `json:"allCharacterIds"`
}

type updateAccountRequest struct {
	Character neucore.Character  `json:"character"`
	Groups    []neucore.Group    `json:"groups"`
	Main      *neucore.Character `json:"main"`
}

type updatePlayerRequest struct {
	Main   neucore.Character `json:"main"`
	Groups []neucore.Group   `json:"groups"`
}

type moveRequest struct {
	ToPlayerID   int64 `json:"toPlayerId"`
	FromPlayerID int64 `json:"fromPlayerId"`
}

type resetPasswordRequest struct {
	CharacterID int64 `json:"characterId"`
}

type resetPasswordResponse struct {
	Password string `json:"password"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) getAccounts(w http.ResponseWriter, r *http.Request) {
	var req accountsRequest
	if !s.decode(w, r, &req) {
		return
	}
	accounts, err := s.svc.GetAccounts(r.Context(), req.Characters, req.Groups)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Character.ID == 0 {
		s.writeInvalid(w, r, errors.New("character id is required"))
		return
	}
	data, err := s.svc.Register(r.Context(), req.Character, req.Groups, req.Email, req.AllCharacterIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, data)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeEmpty(w, r, s.svc.UpdateAccount(r.Context(), req.Character, req.Groups, req.Main))
}

func (s *Server) updatePlayerAccount(w http.ResponseWriter, r *http.Request) {
	var req updatePlayerRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeEmpty(w, r, s.svc.UpdatePlayerAccount(r.Context(), req.Main, req.Groups))
}

func (s *Server) moveServiceAccount(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeEmpty(w, r, s.svc.MoveServiceAccount(r.Context(), req.ToPlayerID, req.FromPlayerID))
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	password, err := s.svc.ResetPassword(r.Context(), req.CharacterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resetPasswordResponse{Password: password})
}

func (s *Server) getAllAccounts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.GetAllAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ids)
}

func (s *Server) getAllPlayerAccounts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.GetAllPlayerAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ids)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if err != nil {
		s.writeInvalid(w, r, errors.Wrap(err, "invalid json body"))
		return false
	}
	return true
}
