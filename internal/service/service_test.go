package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/database/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustAccount(t *testing.T, ctx context.Context, db *sql.DB, name string, isMain bool) repository.Account {
	t.Helper()
	a := repository.Account{
		ID:        uuid.NewString(),
		Name:      name,
		IsMain:    isMain,
		Balance:   decimal.Zero,
		CreatedAt: database.Now(),
	}
	require.NoError(t, repository.NewAccountRepo(db).Insert(ctx, a))
	return a
}

func mustCategory(t *testing.T, ctx context.Context, db *sql.DB, name string) repository.Category {
	t.Helper()
	c := repository.Category{ID: uuid.NewString(), Name: name}
	require.NoError(t, repository.NewCategoryRepo(db).Insert(ctx, c))
	return c
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
