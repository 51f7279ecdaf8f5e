package repo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostx76/microservices-project/internal/account/entity"
	"github.com/frostx76/microservices-project/internal/account/repo"
	"github.com/frostx76/microservices-project/internal/testutil"
	"github.com/frostx76/microservices-project/pkg/apperr"
)

func TestAccountRepo(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	r := repo.NewAccountRepo(testDB.DB)
	ctx := context.Background()
	require.NoError(t, r.EnsureTable(ctx))
	require.NoError(t, r.EnsureTable(ctx), "EnsureTable must be idempotent")

	a := &entity.Account{ID: 1, Email: "ann@example.com", PasswordHash: "h", IsActive: true}
	require.NoError(t, r.Create(ctx, a))
	assert.False(t, a.CreatedAt.IsZero())

	got, err := r.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.True(t, got.IsActive)

	_, err = r.GetByEmail(ctx, "ANN@example.com")
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)

	err = r.Create(ctx, &entity.Account{ID: 2, Email: "ann@example.com", PasswordHash: "h", IsActive: true})
	assert.ErrorIs(t, err, apperr.ErrEmailAlreadyRegistered)

	require.NoError(t, r.Create(ctx, &entity.Account{ID: 3, Email: "bob@example.com", PasswordHash: "h", IsActive: true}))
	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, "bob@example.com", all[1].Email)
	assert.Empty(t, all[0].PasswordHash)
	assert.False(t, all[1].CreatedAt.IsZero())

	require.NoError(t, r.DeleteByID(ctx, 3))
	assert.ErrorIs(t, r.DeleteByID(ctx, 3), apperr.ErrAccountNotFound)

	require.NoError(t, r.DeleteByEmail(ctx, "ann@example.com"))
	assert.ErrorIs(t, r.DeleteByEmail(ctx, "ann@example.com"), apperr.ErrAccountNotFound)
}

func TestAccountRepoConcurrentCreate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	r := repo.NewAccountRepo(testDB.DB)
	ctx := context.Background()
	require.NoError(t, r.EnsureTable(ctx))

	const n = 10
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Create(ctx, &entity.Account{ID: int64(100 + i), Email: "race@example.com", PasswordHash: "h", IsActive: true})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrEmailAlreadyRegistered)
	}
	assert.Equal(t, 1, ok)

	count, err := r.Count(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
