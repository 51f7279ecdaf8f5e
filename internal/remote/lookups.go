package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frostx76/microservices-project/pkg/apperr"
)

// FilmClient answers "does this film exist" against the catalog service.
type FilmClient struct {
	c *Client
}

func NewFilmClient(c *Client) *FilmClient { return &FilmClient{c: c} }

// FilmExists returns nil for a 2xx, apperr.ErrFilmNotFound for any 4xx and
// apperr.ErrDependencyUnavailable otherwise.
func (f *FilmClient) FilmExists(ctx context.Context, id int64) error {
	return exists(ctx, f.c, fmt.Sprintf("/films/%d", id), apperr.ErrFilmNotFound)
}

// UserClient answers "does this profile exist" against the profile service.
type UserClient struct {
	c *Client
}

func NewUserClient(c *Client) *UserClient { return &UserClient{c: c} }

// UserExists has the same mapping as FilmExists with apperr.ErrUserNotFound.
func (u *UserClient) UserExists(ctx context.Context, id int64) error {
	return exists(ctx, u.c, fmt.Sprintf("/users/%d", id), apperr.ErrUserNotFound)
}

func exists(ctx context.Context, c *Client, path string, notFound error) error {
	err := c.Do(ctx, http.MethodGet, path, nil, nil, nil)
	var se *StatusError
	if errors.As(err, &se) {
		return notFound
	}
	return err
}
