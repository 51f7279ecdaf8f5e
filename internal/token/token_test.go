package token_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/frostx76/microservices-project/internal/account"
	"github.com/frostx76/microservices-project/internal/account/entity"
	"github.com/frostx76/microservices-project/internal/remote"
	"github.com/frostx76/microservices-project/internal/token"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

const secret = "test-secret"

func TestCodecRoundTrip(t *testing.T) {
	c := token.NewCodec(secret, 30*time.Minute)
	signed, exp, err := c.Sign("ann@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	sub, err := c.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", sub)
}

func TestCodecRejects(t *testing.T) {
	c := token.NewCodec(secret, 30*time.Minute)
	past := c.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	expired, _, err := past.Sign("ann@example.com")
	require.NoError(t, err)

	otherKey, _, err := token.NewCodec("other-secret", time.Minute).Sign("ann@example.com")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ann@example.com",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "ann@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "expired", raw: expired, want: apperr.ErrExpiredToken},
		{name: "wrong secret", raw: otherKey, want: apperr.ErrInvalidToken},
		{name: "malformed", raw: "not.a.jwt", want: apperr.ErrInvalidToken},
		{name: "missing subject", raw: noSub, want: apperr.ErrInvalidToken},
		{name: "missing expiry", raw: noExp, want: apperr.ErrInvalidToken},
		{name: "other algorithm", raw: hs512, want: apperr.ErrInvalidToken},
		{name: "empty", raw: "", want: apperr.ErrMissingToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse(tt.raw)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.Equal(t, "invalid token", apperr.Message(err))
		})
	}
}

type memStore struct {
	accounts map[string]entity.Account
}

func (m *memStore) Create(_ context.Context, a *entity.Account) error {
	if _, ok := m.accounts[a.Email]; ok {
		return apperr.ErrEmailAlreadyRegistered
	}
	m.accounts[a.Email] = *a
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memStore) DeleteByEmail(_ context.Context, email string) error {
	delete(m.accounts, email)
	return nil
}


type ids struct{ n atomic.Int64 }

func (i *ids) Next() int64 { return i.n.Add(1) }

func newAuthServer(t *testing.T) (*httptest.Server, *account.Service) {
	t.Helper()
	accounts := account.NewService(&memStore{accounts: map[string]entity.Account{}}, account.BcryptHasher{Cost: bcrypt.MinCost}, &ids{}, nil)
	svc := token.NewService(accounts, token.NewCodec(secret, 30*time.Minute), nil)
	r := chi.NewRouter()
	token.NewHandler(svc, nil).Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, accounts
}

func TestRegisterIssueVerify(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewService(&memStore{accounts: map[string]entity.Account{}}, account.BcryptHasher{Cost: bcrypt.MinCost}, &ids{}, nil)
	svc := token.NewService(accounts, token.NewCodec(secret, 30*time.Minute), nil)

	for _, email := range []string{"ann@example.com", "Bob.Smith+films@example.org"} {
		_, err := accounts.Register(ctx, email, "password1")
		require.NoError(t, err)

		tok, err := svc.Issue(ctx, email, "password1")
		require.NoError(t, err)
		assert.Equal(t, "bearer", tok.TokenType)
		assert.Equal(t, int64(1800), tok.ExpiresIn)

		got, err := svc.Verify(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, email, got)
	}

	_, err := svc.Issue(ctx, "ann@example.com", "nope-nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestHandlerTokenAndRemoteVerify(t *testing.T) {
	srv, accounts := newAuthServer(t)
	_, err := accounts.Register(context.Background(), "ann@example.com", "password1")
	require.NoError(t, err)

	form := url.Values{"username": {"ann@example.com"}, "password": {"password1"}}
	resp, err := http.Post(srv.URL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok token.Token
	require.NoError(t, jsonDecode(resp, &tok))

	v := token.NewRemoteVerifier(remote.NewClient("auth", srv.URL, time.Second))
	email, err := v.Verify(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", email)

	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	resp2, err := http.Post(srv.URL+"/token", "application/json", strings.NewReader(`{"email":"ann@example.com","password":"bad-password"}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestRemoteVerifierStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: apperr.ErrInvalidToken},
		{name: "forbidden", status: http.StatusForbidden, want: apperr.ErrInvalidToken},
		{name: "wrong route", status: http.StatusNotFound, want: apperr.ErrDependencyUnavailable},
		{name: "wrong method", status: http.StatusMethodNotAllowed, want: apperr.ErrDependencyUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, want: apperr.ErrDependencyUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			v := token.NewRemoteVerifier(remote.NewClient("auth", srv.URL, time.Second))
			_, err := v.Verify(context.Background(), "anything")
			assert.ErrorIs(t, err, tt.want)
			if tt.want == apperr.ErrDependencyUnavailable {
				assert.NotErrorIs(t, err, apperr.ErrUnauthorized)
				assert.Equal(t, http.StatusServiceUnavailable, apperr.Status(err))
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	codec := token.NewCodec(secret, time.Minute)
	signed, _, err := codec.Sign("ann@example.com")
	require.NoError(t, err)

	var seen string
	h := token.RequireToken(token.NewLocalVerifier(codec))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = token.Subject(r.Context())
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  int
	}{
		{name: "header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+signed) }, want: http.StatusOK},
		{name: "lowercase scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "bearer "+signed) }, want: http.StatusOK},
		{name: "query", setup: func(r *http.Request) { r.URL.RawQuery = "token=" + signed }, want: http.StatusOK},
		{name: "missing", setup: func(r *http.Request) {}, want: http.StatusUnauthorized},
		{name: "bad", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "ann@example.com", seen)
			}
		})
	}
}

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
