package review

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/review/entity"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Store is the persistence the service needs; repo.ReviewRepo implements it.
type Store interface {
	Create(ctx context.Context, rv *entity.Review) error
	Get(ctx context.Context, id int64) (*entity.Review, error)
	List(ctx context.Context, f entity.Filter) ([]entity.Review, error)
	Approve(ctx context.Context, id int64) (*entity.Review, error)
	Delete(ctx context.Context, id int64) error
}

// Verifier checks the caller's bearer token.
type Verifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// FilmLookup reports apperr.ErrFilmNotFound for an unknown film.
type FilmLookup interface {
	FilmExists(ctx context.Context, id int64) error
}

// UserLookup reports apperr.ErrUserNotFound for an unknown profile.
type UserLookup interface {
	UserExists(ctx context.Context, id int64) error
}

type IDSource interface {
	Next() int64
}

type Service struct {
	store    Store
	verifier Verifier
	films    FilmLookup
	users    UserLookup
	ids      IDSource
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewService(store Store, verifier Verifier, films FilmLookup, users UserLookup, ids IDSource, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		store:    store,
		verifier: verifier,
		films:    films,
		users:    users,
		ids:      ids,
		now:      time.Now,
		logger:   logger,
	}
}

// Create runs the write checks one after another and stops at the first failure:
// token, then film, then user. Nothing is stored unless all three pass.
// Malformed input is rejected before any remote call.
func (s *Service) Create(ctx context.Context, rawToken string, in entity.NewReview) (*entity.Review, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}

	email, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if err := s.films.FilmExists(ctx, in.FilmID); err != nil {
		s.logger.Infow("review rejected", "step", "film", "film_id", in.FilmID, "err", err)
		return nil, err
	}
	if err := s.users.UserExists(ctx, in.UserID); err != nil {
		s.logger.Infow("review rejected", "step", "user", "user_id", in.UserID, "err", err)
		return nil, err
	}

	rv := &entity.Review{
		ID:        s.ids.Next(),
		FilmID:    in.FilmID,
		UserID:    in.UserID,
		Text:      in.Text,
		Rating:    in.Rating,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, rv); err != nil {
		return nil, err
	}
	s.logger.Infow("review created", "id", rv.ID, "film_id", rv.FilmID, "user_id", rv.UserID, "by", email)
	return rv, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Review, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f entity.Filter) ([]entity.Review, error) {
	return s.store.List(ctx, f)
}

// Approve is idempotent.
func (s *Service) Approve(ctx context.Context, id int64) (*entity.Review, error) {
	rv, err := s.store.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("review approved", "id", id)
	return rv, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("review deleted", "id", id)
	return nil
}
