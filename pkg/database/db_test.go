package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/films?sslmode=disable")
	t.Setenv("DATABASE_MAX_CONNS", "12")
	cfg := ConfigFromEnv()
	assert.Equal(t, "postgres://u:p@db:5432/films?sslmode=disable", cfg.DSN)
	assert.Equal(t, 12, cfg.MaxConns)

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "nope")
	cfg = ConfigFromEnv()
	assert.Contains(t, cfg.DSN, "localhost:5432")
	assert.Equal(t, 5, cfg.MaxConns)
}
