// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/bizdash/bizdash/internal/auth"
	"github.com/bizdash/bizdash/internal/metrics"
	"github.com/bizdash/bizdash/internal/model"
	"github.com/bizdash/bizdash/internal/repository"
)

// dummyPassword is hashed once and verified against on unknown-email logins
// so both failure paths spend the same hashing work.
const dummyPassword = "bizdash-timing-equalizer"

// UserDirectory persists user records.
// *repository.Repository implements it.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// PasswordRehasher is implemented by directories that can replace a stored hash.
type PasswordRehasher interface {
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// TokenMinter signs session tokens.
type TokenMinter interface {
	Issue(userID, email string) (string, time.Time, error)
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Password string `json:"password" validate:"required,min=6,max=128,maxbytes=72"`
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.PublicUser
}

// AuthService handles registration, login and user listing.
type AuthService struct {
	users    UserDirectory
	hasher   auth.PasswordHasher
	tokens   TokenMinter
	metrics  metrics.Recorder
	logger   *slog.Logger
	validate *validator.Validate

	dummyMu   sync.Mutex
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users UserDirectory,
	hasher auth.PasswordHasher,
	tokens TokenMinter,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  recorder,
		logger:   logger,
		validate: newValidator(),
	}
}

// Register creates a user and returns its public projection.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.PublicUser, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	if err := validateStruct(s.validate, input); err != nil {
		s.metrics.IncRegistration(metrics.StatusInvalid)
		return nil, err
	}

	// Fast path only; the unique index decides races below.
	_, err := s.users.GetUserByEmail(ctx, input.Email)
	switch {
	case err == nil:
		s.metrics.IncRegistration(metrics.StatusDuplicate)
		return nil, ErrDuplicateEmail
	case !errors.Is(err, repository.ErrUserNotFound):
		s.metrics.IncRegistration(metrics.StatusError)
		return nil, directoryError("find_by_email", err)
	}

	hash, err := s.hash(ctx, input.Password)
	if err != nil {
		s.metrics.IncRegistration(metrics.StatusError)
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, input.Name, input.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncRegistration(metrics.StatusDuplicate)
			return nil, ErrDuplicateEmail
		}
		s.metrics.IncRegistration(metrics.StatusError)
		return nil, directoryError("create", err)
	}

	s.metrics.IncRegistration(metrics.StatusSuccess)
	public := user.Public()
	return &public, nil
}

// Login verifies credentials and mints a session token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = normalizeEmail(input.Email)

	if err := validateStruct(s.validate, input); err != nil {
		s.metrics.IncLogin(metrics.StatusInvalid)
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnVerify(ctx, input.Password)
			s.metrics.IncLogin(metrics.StatusUnauthorized)
			return nil, ErrInvalidCredentials
		}
		s.metrics.IncLogin(metrics.StatusError)
		return nil, directoryError("find_by_email", err)
	}

	ok, err := s.verify(ctx, input.Password, user.PasswordHash)
	if err != nil {
		s.metrics.IncLogin(metrics.StatusError)
		return nil, oops.Code(CodeHashFailed).
			With("user_id", user.ID).
			Wrap(fmt.Errorf("%w: %w", ErrHashing, err))
	}
	if !ok {
		s.metrics.IncLogin(metrics.StatusUnauthorized)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.IncLogin(metrics.StatusError)
		return nil, oops.Code(CodeTokenSignFailed).With("user_id", user.ID).Wrap(err)
	}

	s.maybeRehash(ctx, user, input.Password)

	s.metrics.IncLogin(metrics.StatusSuccess)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Public(),
	}, nil
}

// ListUsers returns every user projected to public fields. Never returns nil on success.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, directoryError("list_all", err)
	}
	return model.ToPublicUsers(users), nil
}

func (s *AuthService) hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(ctx, password)
	s.metrics.ObserveHashDuration(time.Since(start))
	if err != nil {
		return "", oops.Code(CodeHashFailed).Wrap(fmt.Errorf("%w: %w", ErrHashing, err))
	}
	return hash, nil
}

func (s *AuthService) verify(ctx context.Context, password, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHashDuration(time.Since(start)) }()
	return s.hasher.Verify(ctx, password, hash)
}

// burnVerify runs a verification against a throwaway hash. The result is discarded.
func (s *AuthService) burnVerify(ctx context.Context, password string) {
	hash := s.dummy(ctx)
	if hash == "" {
		return
	}
	_, _ = s.verify(ctx, password, hash)
}

// dummy returns the throwaway hash, preparing it on first use. A failed
// preparation is not cached; the next call tries again.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}
	hash, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
	if err != nil {
		s.logger.Warn("failed to prepare timing-equalization hash", "error", err)
		return ""
	}
	s.dummyHash = hash
	return hash
}

// maybeRehash upgrades a stored hash produced by a non-current algorithm.
// Failures are logged; the login still succeeds.
func (s *AuthService) maybeRehash(ctx context.Context, user *model.User, password string) {
	checker, ok := s.hasher.(interface{ NeedsRehash(string) bool })
	if !ok || !checker.NeedsRehash(user.PasswordHash) {
		return
	}
	updater, ok := s.users.(PasswordRehasher)
	if !ok {
		return
	}

	hash, err := s.hash(ctx, password)
	if err == nil {
		err = updater.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password hash", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("upgraded password hash", "user_id", user.ID)
}

func directoryError(operation string, err error) error {
	return oops.Code(CodeDirectoryUnavailable).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
