package account

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/account/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

// Password bounds enforced at registration. The upper bound is in bytes,
// the most bcrypt will hash.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// Store is the persistence the service needs; repo.AccountRepo implements it.
type Store interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// IDSource hands out new account ids.
type IDSource interface {
	Next() int64
}

// Service is the credential store: registration, password checks, removal.
type Service struct {
	store  Store
	hasher PasswordHasher
	// accepted for verification only, so a switch of PASSWORD_HASHER keeps old accounts working
	legacy []PasswordHasher
	ids    IDSource
	logger *zap.SugaredLogger
}

func NewService(store Store, hasher PasswordHasher, ids IDSource, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	legacy := []PasswordHasher{BcryptHasher{}, NewArgon2Hasher(nil)}
	return &Service{store: store, hasher: hasher, legacy: legacy, ids: ids, logger: logger}
}

// Register stores a new active account. The pre-check only saves a hash on the
// common path; the store's unique constraint decides races.
func (s *Service) Register(ctx context.Context, email, password string) (*entity.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return nil, apperr.Validation("password must be at most %d bytes", MaxPasswordBytes)
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, apperr.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, apperr.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	a := &entity.Account{
		ID:           s.ids.Next(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Infow("account registered", "email", a.Email, "id", a.ID)
	return a, nil
}

// Authenticate returns the account when email exists and the password matches.
// Unknown email and wrong password are the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	a, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrAccountNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.verify(a.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) verify(hash, password string) bool {
	if s.hasher.Owns(hash) {
		return s.hasher.Verify(hash, password)
	}
	for _, h := range s.legacy {
		if h.Owns(hash) {
			return h.Verify(hash, password)
		}
	}
	return false
}

// Get returns the account for email.
func (s *Service) Get(ctx context.Context, email string) (*entity.Account, error) {
	return s.store.GetByEmail(ctx, email)
}

// Delete removes the account after checking its credentials. The registration
// saga calls it to undo a registration whose profile step failed.
func (s *Service) Delete(ctx context.Context, email, password string) error {
	if _, err := s.Authenticate(ctx, email, password); err != nil {
		return err
	}
	if err := s.store.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	s.logger.Infow("account deleted", "email", email)
	return nil
}
