package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/price-scraper/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// RunRecord is a stored run without its rows.
type RunRecord struct {
	ID         uuid.UUID      `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    models.Summary `json:"summary"`
	OutputFile string         `json:"output_file,omitempty"`
}

// StoredRow is a result row together with the run it came from.
type StoredRow struct {
	RunID      uuid.UUID `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	models.ResultRow
}

// RunRepository persists runs and their rows.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

var rowColumns = []string{
	"run_id", "position", "code", "store", "available",
	"product", "price_online", "price_regular", "price_card",
}

// rowSource lays out rows for COPY, keeping processing order in position.
func rowSource(runID uuid.UUID, rows []models.ResultRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			runID, i, r.Code, r.Store, r.Available,
			r.Product, r.PriceOnline, r.PriceRegular, r.PriceCard,
		}
	}
	return out
}

// SaveWithTx writes run and its rows inside tx.
func (r *RunRepository) SaveWithTx(ctx context.Context, tx pgx.Tx, run *models.Run, outputFile string) error {
	s := run.Summary()

	_, err := tx.Exec(ctx, `
		INSERT INTO price_run (id, started_at, finished_at, total, found, not_found, errors, output_file)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`,
		run.ID, run.StartedAt, run.FinishedAt, s.Total, s.Found, s.NotFound, s.Errors, outputFile,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(run.Rows) == 0 {
		return nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"price_row"}, rowColumns,
		pgx.CopyFromRows(rowSource(run.ID, run.Rows)))
	if err != nil {
		return fmt.Errorf("failed to copy rows: %w", err)
	}
	if int(n) != len(run.Rows) {
		return fmt.Errorf("copied %d of %d rows", n, len(run.Rows))
	}

	return nil
}

// SaveRun stores run in its own transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run, outputFile string) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return r.SaveWithTx(ctx, tx, run, outputFile)
	})
}

const runColumns = `id, started_at, finished_at, total, found, not_found, errors, COALESCE(output_file, '')`

func scanRun(row pgx.Row) (*RunRecord, error) {
	rec := &RunRecord{}
	err := row.Scan(
		&rec.ID, &rec.StartedAt, &rec.FinishedAt,
		&rec.Summary.Total, &rec.Summary.Found, &rec.Summary.NotFound, &rec.Summary.Errors,
		&rec.OutputFile,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM price_run ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	rec, err := scanRun(r.db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM price_run WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// GetRows returns the rows of a run in processing order.
func (r *RunRepository) GetRows(ctx context.Context, id uuid.UUID) ([]models.ResultRow, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT code, store, available, product, price_online, price_regular, price_card
		FROM price_row
		WHERE run_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	defer rows.Close()

	out := []models.ResultRow{}
	for rows.Next() {
		var row models.ResultRow
		if err := rows.Scan(&row.Code, &row.Store, &row.Available, &row.Product,
			&row.PriceOnline, &row.PriceRegular, &row.PriceCard); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// LatestForCode returns every store's row for code from the most recent
// run that looked it up.
func (r *RunRepository) LatestForCode(ctx context.Context, code string) ([]StoredRow, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT pr.run_id, run.finished_at, pr.code, pr.store, pr.available, pr.product,
			pr.price_online, pr.price_regular, pr.price_card
		FROM price_row pr
		JOIN price_run run ON run.id = pr.run_id
		WHERE pr.code = $1
			AND pr.run_id = (
				SELECT r2.run_id
				FROM price_row r2
				JOIN price_run p2 ON p2.id = r2.run_id
				WHERE r2.code = $1
				ORDER BY p2.finished_at DESC
				LIMIT 1
			)
		ORDER BY pr.position`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rows: %w", err)
	}
	defer rows.Close()

	out := []StoredRow{}
	for rows.Next() {
		var s StoredRow
		if err := rows.Scan(&s.RunID, &s.FinishedAt, &s.Code, &s.Store, &s.Available, &s.Product,
			&s.PriceOnline, &s.PriceRegular, &s.PriceCard); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}
