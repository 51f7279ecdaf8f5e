package film

import (
	"context"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/film/entity"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Store is the persistence the service needs; repo.FilmRepo implements it.
type Store interface {
	Create(ctx context.Context, f *entity.Film) error
	Get(ctx context.Context, id int64) (*entity.Film, error)
	List(ctx context.Context, flt entity.Filter) ([]entity.Film, error)
	Update(ctx context.Context, f *entity.Film) error
	Delete(ctx context.Context, id int64) error
}

type IDSource interface {
	Next() int64
}

// Service is the film catalog.
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

func (s *Service) Create(ctx context.Context, in entity.Input) (*entity.Film, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	f := &entity.Film{ID: s.ids.Next(), Title: in.Title, Director: in.Director, Year: in.Year, Rating: in.Rating}
	if err := s.store.Create(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Infow("film created", "id", f.ID, "title", f.Title)
	return f, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Film, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, flt entity.Filter) ([]entity.Film, error) {
	if flt.Limit <= 0 || flt.Limit > MaxLimit {
		flt.Limit = DefaultLimit
	}
	if flt.Skip < 0 {
		flt.Skip = 0
	}
	return s.store.List(ctx, flt)
}

// Replace overwrites every writable field of film id.
func (s *Service) Replace(ctx context.Context, id int64, in entity.Input) (*entity.Film, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	f := &entity.Film{ID: id, Title: in.Title, Director: in.Director, Year: in.Year, Rating: in.Rating}
	if err := s.store.Update(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Infow("film updated", "id", id)
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("film deleted", "id", id)
	return nil
}
