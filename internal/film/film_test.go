package film

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostx76/microservices-project/internal/film/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

type memStore struct {
	mu    sync.Mutex
	films map[int64]entity.Film
}

func newMemStore() *memStore { return &memStore{films: map[int64]entity.Film{}} }

func (m *memStore) Create(_ context.Context, f *entity.Film) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.films[f.ID] = *f
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*entity.Film, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.films[id]
	if !ok {
		return nil, apperr.ErrFilmNotFound
	}
	return &f, nil
}

func (m *memStore) List(_ context.Context, flt entity.Filter) ([]entity.Film, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Film{}
	for _, f := range m.films {
		if flt.Title != "" && !strings.Contains(strings.ToLower(f.Title), strings.ToLower(flt.Title)) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if flt.Skip >= len(out) {
		return []entity.Film{}, nil
	}
	out = out[flt.Skip:]
	if len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, f *entity.Film) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.films[f.ID]; !ok {
		return apperr.ErrFilmNotFound
	}
	m.films[f.ID] = *f
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.films[id]; !ok {
		return apperr.ErrFilmNotFound
	}
	delete(m.films, id)
	return nil
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Next() int64 { return s.n.Add(1) }

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	tests := []struct {
		name    string
		in      entity.Input
		wantErr bool
	}{
		{name: "valid", in: entity.Input{Title: "Alien", Director: "Ridley Scott", Year: 1979, Rating: 8.5}},
		{name: "rating bounds inclusive", in: entity.Input{Title: "A", Director: "B", Year: 1901, Rating: 10}},
		{name: "zero rating", in: entity.Input{Title: "A", Director: "B", Year: 2000, Rating: 0}},
		{name: "year 1900", in: entity.Input{Title: "A", Director: "B", Year: 1900, Rating: 5}, wantErr: true},
		{name: "rating above 10", in: entity.Input{Title: "A", Director: "B", Year: 2000, Rating: 10.1}, wantErr: true},
		{name: "negative rating", in: entity.Input{Title: "A", Director: "B", Year: 2000, Rating: -1}, wantErr: true},
		{name: "missing title", in: entity.Input{Director: "B", Year: 2000, Rating: 5}, wantErr: true},
		{name: "missing director", in: entity.Input{Title: "A", Year: 2000, Rating: 5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := svc.Create(context.Background(), tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, f.ID)
		})
	}
}

func TestReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	f, err := svc.Create(ctx, entity.Input{Title: "Alien", Director: "Ridley Scott", Year: 1979, Rating: 8})
	require.NoError(t, err)

	got, err := svc.Replace(ctx, f.ID, entity.Input{Title: "Aliens", Director: "James Cameron", Year: 1986, Rating: 8.4})
	require.NoError(t, err)
	assert.Equal(t, "Aliens", got.Title)

	_, err = svc.Replace(ctx, 999, entity.Input{Title: "X", Director: "Y", Year: 2000, Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrFilmNotFound)

	require.NoError(t, svc.Delete(ctx, f.ID))
	_, err = svc.Get(ctx, f.ID)
	assert.ErrorIs(t, err, apperr.ErrFilmNotFound)
}

func TestHandler(t *testing.T) {
	svc := NewService(newMemStore(), &seqIDs{}, nil)
	var guarded atomic.Int32
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded.Add(1)
			if r.Header.Get("Authorization") != "Bearer ok" {
				apperr.Write(w, apperr.ErrMissingToken)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	r := chi.NewRouter()
	NewHandler(svc, nil).Mount(r, guard)

	do := func(method, path, body string, authed bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if authed {
			req.Header.Set("Authorization", "Bearer ok")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	body := `{"title":"Alien","director":"Ridley Scott","year":1979,"rating":8.5}`
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/films", body, false).Code)
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "/films", body, true).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		do(http.MethodPost, "/films", `{"title":"Alien","director":"R","year":1800,"rating":5}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/films", `{"title":`, true).Code)

	rec := do(http.MethodGet, "/films/1", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Alien"`)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/films/2", "", false).Code)

	rec = do(http.MethodGet, "/films?title=ali&limit=5", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alien")
	assert.Equal(t, http.StatusUnprocessableEntity, do(http.MethodGet, "/films?limit=0", "", false).Code)

	assert.Equal(t, http.StatusOK,
		do(http.MethodPut, "/films/1", `{"title":"Aliens","director":"James Cameron","year":1986,"rating":8.4}`, true).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/films/1", "", true).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/films/1", "", true).Code)
	assert.Positive(t, guarded.Load())
}
