package token

import (
	"context"
	"errors"
	"net/http"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/internal/remote"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

// Verifier turns a raw bearer token into the email it was issued for.
type Verifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// LocalVerifier checks tokens with the shared secret.
type LocalVerifier struct {
	codec *Codec
}

func NewLocalVerifier(codec *Codec) *LocalVerifier { return &LocalVerifier{codec: codec} }

func (v *LocalVerifier) Verify(_ context.Context, raw string) (string, error) {
	return v.codec.Parse(raw)
}

// RemoteVerifier asks the token service's POST /verify. Only 401 and 403
// answers reject the token; other failures are apperr.ErrDependencyUnavailable.
type RemoteVerifier struct {
	c *remote.Client
}

func NewRemoteVerifier(c *remote.Client) *RemoteVerifier { return &RemoteVerifier{c: c} }

type verifyResponse struct {
	Email string `json:"email"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", apperr.ErrMissingToken
	}
	var out verifyResponse
	err := v.c.Do(ctx, http.MethodPost, "/verify", remote.BearerHeader(raw), nil, &out)
	var se *remote.StatusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", apperr.ErrInvalidToken
		}
		// any other 4xx means /verify is not answering as the token service
		return "", apperr.Unavailable(v.c.Name(), se)
	}
	if err != nil {
		return "", err
	}
	if out.Email == "" {
		return "", apperr.ErrInvalidToken
	}
	return out.Email, nil
}

// NewVerifier picks local or remote verification from cfg.
func NewVerifier(cfg *config.Config) Verifier {
	if cfg.JWT.VerifyMode == config.VerifyLocal {
		return NewLocalVerifier(NewCodec(cfg.JWT.Secret, cfg.JWT.TTL))
	}
	return NewRemoteVerifier(remote.NewClient("auth", cfg.Remote.AuthURL, cfg.Remote.Timeout))
}
