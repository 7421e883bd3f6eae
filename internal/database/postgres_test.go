package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/lending/internal/config"
	"github.com/ngenohkevin/lending/internal/models"
	"github.com/ngenohkevin/lending/internal/services"
)

func setupTestDB(t *testing.T) *Database {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Use environment DATABASE_URL if available, otherwise skip
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping database integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestPostgresStore_Contract(t *testing.T) {
	db := setupTestDB(t)

	testStoreContract(t, func(t *testing.T) services.Store {
		_, err := db.Pool.Exec(context.Background(),
			"TRUNCATE borrowings, borrowers, books RESTART IDENTITY CASCADE")
		require.NoError(t, err)
		return NewPostgresStore(db.Pool, slog.Default())
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "serialization failure",
			err:  &pgconn.PgError{Code: pgSerializationFailure},
			want: models.ErrConcurrencyConflict,
		},
		{
			name: "deadlock",
			err:  &pgconn.PgError{Code: pgDeadlockDetected},
			want: models.ErrConcurrencyConflict,
		},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "borrowers_email_key"},
			want: models.ErrConflict,
		},
		{
			name: "foreign key violation",
			err:  fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgForeignKeyViolation}),
			want: models.ErrConflict,
		},
		{
			name: "check violation",
			err:  &pgconn.PgError{Code: pgCheckViolation},
			want: models.ErrConflict,
		},
		{
			name: "other driver error",
			err:  errors.New("connection reset"),
			want: models.ErrPersistence,
		},
		{
			name: "domain error passes through",
			err:  models.NewNotFoundError("book", 7),
			want: models.ErrNotFound,
		},
		{
			name: "context error passes through",
			err:  context.DeadlineExceeded,
			want: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError("test op", tt.err), tt.want)
		})
	}

	assert.NoError(t, mapError("test op", nil))
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `100\%`, likeEscaper.Replace("100%"))
	assert.Equal(t, `snake\_case`, likeEscaper.Replace("snake_case"))
	assert.Equal(t, `back\\slash`, likeEscaper.Replace(`back\slash`))
}
