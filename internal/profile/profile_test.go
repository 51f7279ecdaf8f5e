package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostx76/microservices-project/internal/profile/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[int64]entity.Profile
}

func newMemStore() *memStore { return &memStore{profiles: map[int64]entity.Profile{}} }

func (m *memStore) Create(_ context.Context, p *entity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.Email == p.Email {
			return apperr.ErrEmailAlreadyRegistered
		}
	}
	if _, ok := m.profiles[p.ID]; ok {
		return apperr.ErrEmailAlreadyRegistered
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.profiles[p.ID] = *p
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return &p, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (m *memStore) List(_ context.Context, f entity.Filter) ([]entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Profile{}
	for _, p := range m.profiles {
		if f.IsActive != nil && p.IsActive != *f.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Skip >= len(out) {
		return []entity.Profile{}, nil
	}
	out = out[f.Skip:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, p *entity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return apperr.ErrUserNotFound
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return apperr.ErrUserNotFound
	}
	delete(m.profiles, id)
	return nil
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Next() int64 { return 1000 + s.n.Add(1) }

func strp(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), &seqIDs{}, nil)

	p, err := svc.Create(ctx, &entity.Profile{ID: 7, Email: "ann@example.com", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)

	_, err = svc.Create(ctx, &entity.Profile{ID: 8, Email: "ann@example.com"})
	assert.ErrorIs(t, err, apperr.ErrEmailAlreadyRegistered)

	p, err = svc.Create(ctx, &entity.Profile{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), p.ID, "missing id is generated")

	_, err = svc.Create(ctx, &entity.Profile{Email: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	bd := entity.NewDate(1990, time.May, 17)
	_, err := svc.Create(ctx, &entity.Profile{
		ID: 1, Email: "ann@example.com", FullName: strp("Ann Lee"), Bio: strp("likes noir"),
		Birthdate: &bd, IsActive: true,
	})
	require.NoError(t, err)

	p, err := svc.Update(ctx, 1, entity.Patch{Bio: strp("likes westerns")})
	require.NoError(t, err)
	assert.Equal(t, "likes westerns", *p.Bio)
	assert.Equal(t, "Ann Lee", *p.FullName)
	assert.Equal(t, "1990-05-17", p.Birthdate.String())
	assert.Equal(t, "ann@example.com", p.Email)
	assert.True(t, p.IsActive)

	off := false
	p, err = svc.Update(ctx, 1, entity.Patch{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, "likes westerns", *p.Bio)

	_, err = svc.Update(ctx, 99, entity.Patch{Bio: strp("x")})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestListClampsPage(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	for i := 1; i <= 5; i++ {
		_, err := svc.Create(ctx, &entity.Profile{ID: int64(i), Email: strings.Repeat("a", i) + "@example.com", IsActive: i%2 == 1})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, entity.Filter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	active := true
	got, err := svc.List(ctx, entity.Filter{IsActive: &active, Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestDateJSON(t *testing.T) {
	var d entity.Date
	require.NoError(t, json.Unmarshal([]byte(`"2001-02-03"`), &d))
	assert.Equal(t, "2001-02-03", d.String())

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2001-02-03"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"03/02/2001"`), &d))

	require.NoError(t, d.Scan(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1999-12-31", d.String())
	require.NoError(t, d.Scan("2020-01-01T00:00:00Z"))
	assert.Equal(t, "2020-01-01", d.String())
}

func allowAll(next http.Handler) http.Handler { return next }

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, apperr.ErrInvalidToken)
	})
}

func newRouter(svc *Service, guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, nil).Mount(r, guard)
	return r
}

func TestHandlerRoutes(t *testing.T) {
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	h := newRouter(svc, allowAll)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/users", `{"id":5,"email":"ann@example.com","birthdate":"1990-05-17"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"birthdate":"1990-05-17"`)
	assert.Contains(t, rec.Body.String(), `"is_active":true`)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/users", `{"id":6,"email":"ann@example.com"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodPost, "/users", `{"email":"not-an-email"}`).Code)

	rec = do(http.MethodGet, "/users/5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/users/6", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodGet, "/users/abc", "").Code)

	rec = do(http.MethodPatch, "/users/5", `{"full_name":"Ann Lee"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"full_name":"Ann Lee"`)
	assert.Contains(t, rec.Body.String(), `"birthdate":"1990-05-17"`)

	rec = do(http.MethodGet, "/users?limit=10&is_active=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []entity.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodGet, "/users?limit=101", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodGet, "/users?skip=-1", "").Code)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/users/5", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/users/5", "").Code)
}

func TestHandlerMutationsNeedToken(t *testing.T) {
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	_, err := svc.Create(context.Background(), &entity.Profile{ID: 1, Email: "ann@example.com"})
	require.NoError(t, err)
	h := newRouter(svc, denyAll)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/users", `{"email":"x@example.com"}`},
		{http.MethodPatch, "/users/1", `{"bio":"x"}`},
		{http.MethodDelete, "/users/1", ``},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
