package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hr/meridian-hr/internal/auth"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

type stubRepo struct {
	users         map[string]*auth.User
	sessions      map[string]int64
	createErr     error
	deletedTokens []string
	createdTokens []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    map[string]*auth.User{},
		sessions: map[string]int64{},
	}
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *stubRepo) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.sessions[token] = userID
	r.createdTokens = append(r.createdTokens, token)
	return nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, token string) error {
	delete(r.sessions, token)
	r.deletedTokens = append(r.deletedTokens, token)
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newService(t *testing.T, repo *stubRepo) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := auth.NewSessionStore(client, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewService(repo, store, logger)
}

func seedUser(t *testing.T, repo *stubRepo, email, password string, active bool) {
	t.Helper()
	repo.users[email] = &auth.User{
		ID:           1,
		Email:        email,
		Name:         "Ava Chen",
		PasswordHash: mustHash(t, password),
		IsActive:     active,
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newService(t, newStubRepo())

	_, err := svc.Authenticate(context.Background(), "ghost@meridian.local", "whatever1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "ava@meridian.local", "correct-horse", false)
	svc := newService(t, repo)

	_, err := svc.Authenticate(context.Background(), "ava@meridian.local", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "ava@meridian.local", "correct-horse", true)
	svc := newService(t, repo)

	_, err := svc.Authenticate(context.Background(), "ava@meridian.local", "battery-staple")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "ava@meridian.local", "correct-horse", true)
	svc := newService(t, repo)

	sess, err := svc.Login(context.Background(), "ava@meridian.local", "correct-horse", "10.0.0.1", "cli")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, int64(1), sess.UserID)
	require.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	actor, err := svc.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), actor.UserID)
	require.Equal(t, "ava@meridian.local", actor.Email)

	require.Equal(t, []string{sess.Token}, repo.createdTokens)
}

func TestLoginSurvivesAuditWriteFailure(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "ava@meridian.local", "correct-horse", true)
	repo.createErr = errors.New("pg down")
	svc := newService(t, repo)

	sess, err := svc.Login(context.Background(), "ava@meridian.local", "correct-horse", "", "")
	require.NoError(t, err)

	// The redis session is authoritative; the token stays valid.
	actor, err := svc.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), actor.UserID)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := newService(t, newStubRepo())

	_, err := svc.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "ava@meridian.local", "correct-horse", true)
	svc := newService(t, repo)

	sess, err := svc.Login(context.Background(), "ava@meridian.local", "correct-horse", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.Token))

	_, err = svc.Resolve(context.Background(), sess.Token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, []string{sess.Token}, repo.deletedTokens)
}
