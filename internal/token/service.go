package token

import (
	"context"

	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/account/entity"
)

// Authenticator checks a password; account.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*entity.Account, error)
}

// Token is the body returned by POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service issues tokens for valid credentials and verifies them locally.
type Service struct {
	auth   Authenticator
	codec  *Codec
	logger *zap.SugaredLogger
}

func NewService(auth Authenticator, codec *Codec, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{auth: auth, codec: codec, logger: logger}
}

// Issue authenticates email/password and signs a bearer token for the account.
func (s *Service) Issue(ctx context.Context, email, password string) (*Token, error) {
	a, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	signed, _, err := s.codec.Sign(a.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("token issued", "email", a.Email)
	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.codec.TTL().Seconds()),
	}, nil
}

// Verify returns the email carried by raw.
func (s *Service) Verify(_ context.Context, raw string) (string, error) {
	return s.codec.Parse(raw)
}
