package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"colorx/internal/portfolio"
	"colorx/internal/store"
)

var (
	ErrEmptyCredentials = errors.New("username and password cannot be empty")
	ErrUserExists       = errors.New("username already exists")
	ErrUnknownUser      = errors.New("user not found, please sign up first")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Service owns credential checks and saved-progress writes against a
// UserStore. Password digests are bcrypt.
type Service struct {
	users store.UserStore
	log   *slog.Logger
	cost  int
}

func NewService(users store.UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, log: logger, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Signup registers a new credential record with a null portfolio and empty
// history. It does not log the user in.
func (s *Service) Signup(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	users, err := s.users.Load(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if _, ok := users[username]; ok {
		return ErrUserExists
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users[username] = store.UserRecord{
		Password:     string(digest),
		Portfolio:    nil,
		TradeHistory: []portfolio.TradeRecord{},
	}
	if err := s.users.Save(ctx, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	s.log.Info("user signed up", "username", username)
	return nil
}

// Login verifies credentials and returns the stored record. Unknown user
// and wrong password are distinct failures.
func (s *Service) Login(ctx context.Context, username, password string) (store.UserRecord, error) {
	username = strings.TrimSpace(username)
	users, err := s.users.Load(ctx)
	if err != nil {
		return store.UserRecord{}, fmt.Errorf("load users: %w", err)
	}
	rec, ok := users[username]
	if !ok {
		return store.UserRecord{}, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)); err != nil {
		return store.UserRecord{}, ErrWrongPassword
	}
	return rec, nil
}

// SaveProgress overwrites the user's persisted portfolio and trade history,
// leaving the password digest untouched. A record that vanished between
// login and game over is skipped rather than recreated.
func (s *Service) SaveProgress(ctx context.Context, username string, pf *portfolio.Portfolio, history []portfolio.TradeRecord) error {
	users, err := s.users.Load(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	rec, ok := users[username]
	if !ok {
		s.log.Warn("save progress for missing user", "username", username)
		return nil
	}
	rec.Portfolio = pf
	rec.TradeHistory = history
	users[username] = rec
	if err := s.users.Save(ctx, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
