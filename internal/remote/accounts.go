package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/frostx76/microservices-project/pkg/apperr"
)

// RegisteredAccount is the credential service's answer to POST /register.
type RegisteredAccount struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountClient drives the credential service for the registration saga.
type AccountClient struct {
	c *Client
}

func NewAccountClient(c *Client) *AccountClient { return &AccountClient{c: c} }

// Register creates an account. 400 is a duplicate email, 422 a rejected field.
func (a *AccountClient) Register(ctx context.Context, email, password string) (*RegisteredAccount, error) {
	var out RegisteredAccount
	err := a.c.Do(ctx, http.MethodPost, "/register", nil, credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, a.mapStatus(err)
	}
	return &out, nil
}

// Delete removes the account holding these credentials.
func (a *AccountClient) Delete(ctx context.Context, email, password string) error {
	err := a.c.Do(ctx, http.MethodDelete, "/accounts", nil, credentials{Email: email, Password: password}, nil)
	return a.mapStatus(err)
}

func (a *AccountClient) mapStatus(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Status {
	case http.StatusBadRequest, http.StatusConflict:
		return apperr.ErrEmailAlreadyRegistered
	case http.StatusUnprocessableEntity:
		return apperr.Validation("%s", strings.TrimPrefix(se.Message, apperr.ErrValidation.Error()+": "))
	case http.StatusUnauthorized:
		return apperr.ErrInvalidCredentials
	case http.StatusNotFound:
		return apperr.ErrAccountNotFound
	}
	return apperr.Unavailable(a.c.Name(), se)
}
