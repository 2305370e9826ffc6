package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions *SessionStore
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions *SessionStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, logger: logger}
}

// Authenticate validates email/password credentials. Every failure mode maps
// to the same error so callers cannot probe which accounts exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token backed by a redis session.
// The postgres session row is audit metadata; a failure writing it does not
// void the issued token.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (Session, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessions.TTL()),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	if err := s.repo.CreateSession(ctx, sess.Token, user.ID, sess.ExpiresAt, ip, ua); err != nil {
		s.logger.Warn("record session", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return sess, nil
}

// Logout invalidates a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		s.logger.Warn("delete session record", slog.Any("error", err))
	}
	return nil
}

// Resolve maps a bearer token to the acting user.
func (s *Service) Resolve(ctx context.Context, token string) (*shared.Actor, error) {
	sess, err := s.sessions.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	return &shared.Actor{UserID: sess.UserID, Email: sess.Email}, nil
}
