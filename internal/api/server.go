package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"colorx/internal/auth"
	"colorx/internal/config"
	"colorx/internal/portfolio"
	"colorx/internal/session"
	"colorx/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server exposes the session API over HTTP. Each login mints a bearer token
// bound to its own controller; a session's market and portfolio state is
// never shared across tokens.
type Server struct {
	game  config.Game
	log   *slog.Logger
	auth  *auth.Service
	board store.LeaderboardStore
	mux   *chi.Mux

	mu       sync.Mutex
	sessions map[string]*liveSession
	byUser   map[string]string

	newController func() *session.Controller
}

type liveSession struct {
	mu       sync.Mutex
	username string
	ctrl     *session.Controller
}

func New(game config.Game, logger *slog.Logger, authSvc *auth.Service, board store.LeaderboardStore) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		game:     game,
		log:      logger,
		auth:     authSvc,
		board:    board,
		mux:      chi.NewRouter(),
		sessions: map[string]*liveSession{},
		byUser:   map[string]string{},
	}
	s.newController = func() *session.Controller {
		return session.New(game, nil, authSvc, board, logger)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/session", s.handleSnapshot)
			r.Post("/trades", s.handleTrade)
			r.Post("/session/restart", s.handleRestart)
			r.Post("/auth/logout", s.handleLogout)
		})
	})
}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		s.mu.Lock()
		live, ok := s.sessions[token]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown or expired session token")
			return
		}
		ctx := contextWithSession(r.Context(), sessionContext{token: token, live: live})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionSnapshot is the read model handed to presentation layers.
type SessionSnapshot struct {
	Username   string                  `json:"username"`
	Colors     []config.Color          `json:"colors"`
	Prices     map[string]int64        `json:"prices"`
	Portfolio  *portfolio.Portfolio    `json:"portfolio"`
	History    []portfolio.TradeRecord `json:"trade_history"`
	TradeCount int                     `json:"trade_count"`
	MaxTrades  int                     `json:"max_trades"`
	GameOver   bool                    `json:"game_over"`
	FinalValue int64                   `json:"final_value,omitempty"`
}

func (s *Server) snapshot(ctrl *session.Controller) SessionSnapshot {
	return SessionSnapshot{
		Username:   ctrl.Username(),
		Colors:     s.game.Colors,
		Prices:     ctrl.Prices(),
		Portfolio:  ctrl.Portfolio(),
		History:    ctrl.History(),
		TradeCount: ctrl.TradeCount(),
		MaxTrades:  s.game.GameSettings.MaxTrades,
		GameOver:   ctrl.GameOver(),
		FinalValue: ctrl.FinalValue(),
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.auth.Signup(r.Context(), in.Username, in.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "signup successful, welcome " + strings.TrimSpace(in.Username),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctrl := s.newController()
	if err := ctrl.Login(r.Context(), in.Username, in.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	token := uuid.NewString()
	username := ctrl.Username()
	s.mu.Lock()
	// One live token per user: a fresh login invalidates the previous one,
	// so abandoned sessions cannot pile up.
	if prev, ok := s.byUser[username]; ok {
		delete(s.sessions, prev)
	}
	s.sessions[token] = &liveSession{username: username, ctrl: ctrl}
	s.byUser[username] = token
	s.mu.Unlock()
	s.log.Info("session token issued", "username", username)

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"session": s.snapshot(ctrl),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sc, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	sc.live.mu.Lock()
	out := s.snapshot(sc.live.ctrl)
	sc.live.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	sc, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		Action   string `json:"action"`
		Color    string `json:"color"`
		Quantity int64  `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sc.live.mu.Lock()
	defer sc.live.mu.Unlock()
	result, err := sc.live.ctrl.SubmitTrade(r.Context(), portfolio.Action(in.Action), in.Color, in.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     result.Message,
		"event":       result.Event,
		"game_over":   result.GameOver,
		"final_value": result.FinalValue,
		"session":     s.snapshot(sc.live.ctrl),
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sc, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	sc.live.mu.Lock()
	defer sc.live.mu.Unlock()
	if err := sc.live.ctrl.Restart(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s.snapshot(sc.live.ctrl)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sc, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	sc.live.mu.Lock()
	sc.live.ctrl.Logout()
	sc.live.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, sc.token)
	if s.byUser[sc.live.username] == sc.token {
		delete(s.byUser, sc.live.username)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.board.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	store.SortEntries(entries)
	rows := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, map[string]any{
			"rank":     i + 1,
			"username": e.Username,
			"score":    e.Score,
			"date":     e.Date.Format(store.DateFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnknownUser), errors.Is(err, auth.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrEmptyCredentials),
		errors.Is(err, portfolio.ErrInvalidAction),
		errors.Is(err, portfolio.ErrInvalidQuantity),
		errors.Is(err, portfolio.ErrInsufficientFunds),
		errors.Is(err, portfolio.ErrInsufficientHoldings),
		errors.Is(err, session.ErrUnknownColor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrGameOver),
		errors.Is(err, session.ErrGameNotOver),
		errors.Is(err, session.ErrAlreadyLoggedIn):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNotLoggedIn):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
