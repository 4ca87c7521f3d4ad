// Package auth issues and validates sessions against the users
// collection. It is the only component that sees passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/observability"
	"github.com/example/ride-share/internal/storage"
)

type Service struct {
	Users      storage.UserStore
	Sessions   SessionStore
	SessionTTL time.Duration
	Changes    *Broadcaster
	Logger     *slog.Logger
}

// SignUp registers the account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return models.Session{}, authErr(KindInvalidEmail)
	}
	if len(password) < 6 {
		return models.Session{}, authErr(KindOther)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{Email: email, PasswordHash: hash}
	if err := s.Users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return models.Session{}, authErr(KindEmailTaken)
		}
		return models.Session{}, fmt.Errorf("create user: %w", err)
	}

	return s.issue(ctx, u)
}

// SignIn validates credentials and issues a session. Failures map to
// a fixed error kind; the store error itself is logged, not returned.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return models.Session{}, authErr(KindInvalidEmail)
	}

	u, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Session{}, authErr(KindUserNotFound)
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("user lookup failed", "error", err)
		}
		return models.Session{}, authErr(KindOther)
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return models.Session{}, authErr(KindWrongPassword)
	}

	return s.issue(ctx, u)
}

// SignOut invalidates the token and broadcasts the transition.
func (s *Service) SignOut(ctx context.Context, token string) error {
	sess, err := s.Sessions.Get(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.Sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	observability.SessionsActive.Dec()
	if s.Changes != nil {
		s.Changes.publish(StateChange{UserID: sess.UserID, Session: nil})
	}
	return nil
}

// Current resolves a token to its session, or ErrNoSession.
func (s *Service) Current(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrNoSession
	}
	return s.Sessions.Get(ctx, token)
}

func (s *Service) issue(ctx context.Context, u models.User) (models.Session, error) {
	sess := models.Session{
		Token:       uuid.NewString(),
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: models.DisplayNameFor(u),
		IssuedAt:    time.Now().UTC(),
	}
	if err := s.Sessions.Save(ctx, sess, s.SessionTTL); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	observability.SessionsActive.Inc()
	if s.Changes != nil {
		s.Changes.publish(StateChange{
			UserID: sess.UserID,
			Session: &SessionView{
				UserID:      sess.UserID,
				Email:       sess.Email,
				DisplayName: sess.DisplayName,
			},
		})
	}
	return sess, nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.ContainsRune(domain, '.') && !strings.ContainsAny(email, " \t")
}
