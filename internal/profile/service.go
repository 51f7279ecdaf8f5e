package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/profile/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Store is the persistence the service needs; repo.ProfileRepo implements it.
type Store interface {
	Create(ctx context.Context, p *entity.Profile) error
	Get(ctx context.Context, id int64) (*entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	List(ctx context.Context, f entity.Filter) ([]entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	Delete(ctx context.Context, id int64) error
}

// IDSource hands out ids for profiles created without one.
type IDSource interface {
	Next() int64
}

type Service struct {
	store  Store
	ids    IDSource
	logger *zap.SugaredLogger
}

func NewService(store Store, ids IDSource, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, ids: ids, logger: logger}
}

// Create stores p. A profile with the same email is apperr.ErrEmailAlreadyRegistered;
// the unique index settles races.
func (s *Service) Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return nil, apperr.Validation("email is required")
	}
	if _, err := s.store.GetByEmail(ctx, p.Email); err == nil {
		return nil, apperr.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, apperr.ErrUserNotFound) {
		return nil, err
	}
	if p.ID == 0 {
		p.ID = s.ids.Next()
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Infow("profile created", "id", p.ID, "email", p.Email)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Profile, error) {
	return s.store.Get(ctx, id)
}

// List clamps the page to [1, MaxLimit] and a non-negative skip.
func (s *Service) List(ctx context.Context, f entity.Filter) ([]entity.Profile, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.store.List(ctx, f)
}

// Update applies only the fields set in patch.
func (s *Service) Update(ctx context.Context, id int64, patch entity.Patch) (*entity.Profile, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return p, nil
	}
	patch.Apply(p)
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Infow("profile updated", "id", id)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("profile deleted", "id", id)
	return nil
}
