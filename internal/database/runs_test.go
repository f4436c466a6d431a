package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleRun(codes ...string) *models.Run {
	run := models.NewRun()
	for _, code := range codes {
		found := models.NewProductRecord(strPtr("Leche Gloria "+code), map[models.PriceRole]string{
			models.PriceOnline:  "S/ 4.20",
			models.PriceRegular: "S/ 4.90",
		})
		run.Append(models.NewResultRow(code, "Plaza Vea", found, nil), nil)

		navErr := errors.New("timeout")
		run.Append(models.NewResultRow(code, "Wong", nil, navErr), navErr)
	}
	run.Finish()
	return run
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "scraper", Password: "p@ss:word/1", Database: "prices"}

	assert.Equal(t, "postgres://scraper:p%40ss%3Aword%2F1@db:5433/prices?sslmode=disable", cfg.DSN())
}

func TestRowSource(t *testing.T) {
	run := sampleRun("111")

	rows := rowSource(run.ID, run.Rows)
	require.Len(t, rows, 2)

	assert.Equal(t, []any{run.ID, 0, "111", "Plaza Vea", true, "Leche Gloria 111", "S/ 4.20", "S/ 4.90", ""}, rows[0])
	assert.Equal(t, []any{run.ID, 1, "111", "Wong", false, models.NotFound, "", "", ""}, rows[1])
	assert.Len(t, rows[0], len(rowColumns))
}

func TestRunRepository_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRunRepository(db)
	run := sampleRun("111", "222")

	require.NoError(t, repo.SaveRun(ctx, run, "output/resultados.csv"))

	t.Run("get run", func(t *testing.T) {
		rec, err := repo.GetRun(ctx, run.ID)
		require.NoError(t, err)

		assert.Equal(t, run.ID, rec.ID)
		assert.Equal(t, models.Summary{Total: 4, Found: 2, NotFound: 0, Errors: 2}, rec.Summary)
		assert.Equal(t, "output/resultados.csv", rec.OutputFile)
	})

	t.Run("rows keep processing order", func(t *testing.T) {
		rows, err := repo.GetRows(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.Rows, rows)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := repo.GetRun(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)

		rows, err := repo.GetRows(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("duplicate run rolls back", func(t *testing.T) {
		err := repo.SaveRun(ctx, run, "")
		assert.Error(t, err)

		rows, err := repo.GetRows(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})
}

func TestRunRepository_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRunRepository(db)

	older := sampleRun("111")
	older.StartedAt = time.Now().Add(-2 * time.Hour)
	older.FinishedAt = time.Now().Add(-time.Hour)
	newer := sampleRun("111", "222")

	require.NoError(t, repo.SaveRun(ctx, older, ""))
	require.NoError(t, repo.SaveRun(ctx, newer, ""))

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Empty(t, runs[1].OutputFile)

	latest, err := repo.LatestForCode(ctx, "111")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	for _, row := range latest {
		assert.Equal(t, newer.ID, row.RunID)
		assert.Equal(t, "111", row.Code)
	}
	assert.Equal(t, "Plaza Vea", latest[0].Store)

	none, err := repo.LatestForCode(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOutboxRepository_CountByStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewOutboxRepository(db)

	n, err := repo.CountByStatus(ctx, OutboxStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
