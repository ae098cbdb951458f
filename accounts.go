package main

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errResetTokenInvalid  = errors.New("invalid or already used reset token")
	errResetTokenExpired  = errors.New("reset token expired")
)

type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// AccountService owns user records. Every create and update goes through it so
// the user hooks always fire.
type AccountService struct {
	store    Store
	hooks    *userHooks
	resetTTL time.Duration
	hashCost int
	now      func() time.Time
}

func newAccountService(store Store, hooks *userHooks, resetTTL time.Duration) *AccountService {
	return &AccountService{
		store:    store,
		hooks:    hooks,
		resetTTL: resetTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "could not hash password")
	}

	u := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.hooks.afterCreate(ctx, u)
	return u, nil
}

func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return u, nil
}

// RequestPasswordReset issues a fresh token for a known email. Unknown emails
// succeed silently.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	original, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	sentAt := s.now()
	updated := *original
	updated.PasswordResetToken = token
	updated.PasswordResetSentAt = &sentAt
	return s.updateUser(ctx, original, &updated)
}

func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	original, err := s.store.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return errResetTokenInvalid
		}
		return err
	}
	if original.PasswordResetSentAt == nil || s.now().Sub(*original.PasswordResetSentAt) > s.resetTTL {
		return errResetTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return errors.Wrap(err, "could not hash password")
	}
	updated := *original
	updated.PasswordHash = string(hash)
	updated.PasswordResetToken = ""
	updated.PasswordResetSentAt = nil
	return s.updateUser(ctx, original, &updated)
}

func (s *AccountService) updateUser(ctx context.Context, original, updated *User) error {
	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return err
	}
	s.hooks.afterUpdate(ctx, original, updated)
	return nil
}

func newResetToken() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("could not generate reset token")
	}
	return hex.EncodeToString(key), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
