package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/price-scraper/internal/database"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeTransactor runs fn without a real transaction and records whether
// the outcome would have been committed.
type fakeTransactor struct {
	committed bool
}

func (f *fakeTransactor) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	f.committed = true
	return nil
}

type MockRunWriter struct {
	mock.Mock
}

func (m *MockRunWriter) SaveWithTx(ctx context.Context, tx pgx.Tx, run *models.Run, outputFile string) error {
	args := m.Called(ctx, tx, run, outputFile)
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func sampleRun() *models.Run {
	run := models.NewRun()
	rec := models.NewProductRecord(strPtr("Leche Gloria"), map[models.PriceRole]string{models.PriceOnline: "S/ 4.20"})
	run.Append(models.NewResultRow("111", "Plaza Vea", rec, nil), nil)
	run.Append(models.NewResultRow("111", "Wong", nil, nil), nil)
	run.Append(models.NewResultRow("222", "Plaza Vea", nil, nil), nil)
	run.Finish()
	return run
}

func TestNewPriceRunCompletedPayload(t *testing.T) {
	run := sampleRun()

	payload := NewPriceRunCompletedPayload(run, "output/r.csv")

	assert.Equal(t, run.ID.String(), payload.RunID)
	assert.Equal(t, "output/r.csv", payload.OutputFile)
	assert.Equal(t, models.Summary{Total: 3, Found: 1, NotFound: 2}, payload.Summary)
	assert.Equal(t, map[string][]StorePrice{
		"111": {{Store: "Plaza Vea", Available: true, Product: "Leche Gloria", PriceOnline: "S/ 4.20"}},
		"222": {},
	}, payload.Codes)
}

func TestPublisher_PublishRunCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("stores run and queues event", func(t *testing.T) {
		tx := &fakeTransactor{}
		runs := new(MockRunWriter)
		outbox := new(MockOutboxRepository)
		publisher := &Publisher{db: tx, runs: runs, outbox: outbox, stream: "stream:test", logger: slog.Default()}

		run := sampleRun()
		runs.On("SaveWithTx", ctx, nil, run, "out.csv").Return(nil)
		outbox.On("InsertWithTx", ctx, nil, mock.MatchedBy(func(e *database.OutboxEvent) bool {
			var payload PriceRunCompletedPayload
			if err := json.Unmarshal(e.Payload, &payload); err != nil {
				return false
			}
			return e.AggregateType == "price_run" &&
				e.AggregateID == run.ID.String() &&
				e.EventType == "PRICE_RUN_COMPLETED" &&
				e.TargetStream == "stream:test" &&
				payload.EventID != "" &&
				payload.Source == "scraper" &&
				payload.Summary.Total == 3
		})).Return(nil)

		require.NoError(t, publisher.PublishRunCompleted(ctx, run, "out.csv"))
		assert.True(t, tx.committed)

		runs.AssertExpectations(t)
		outbox.AssertExpectations(t)
	})

	t.Run("no event when the run cannot be stored", func(t *testing.T) {
		tx := &fakeTransactor{}
		runs := new(MockRunWriter)
		outbox := new(MockOutboxRepository)
		publisher := &Publisher{db: tx, runs: runs, outbox: outbox, logger: slog.Default()}

		runs.On("SaveWithTx", ctx, nil, mock.Anything, "").Return(errors.New("duplicate key"))

		err := publisher.PublishRunCompleted(ctx, sampleRun(), "")
		assert.ErrorContains(t, err, "duplicate key")
		assert.False(t, tx.committed)
		outbox.AssertNotCalled(t, "InsertWithTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		tx := &fakeTransactor{}
		runs := new(MockRunWriter)
		outbox := new(MockOutboxRepository)
		publisher := &Publisher{db: tx, runs: runs, outbox: outbox, logger: slog.Default()}

		runs.On("SaveWithTx", ctx, nil, mock.Anything, "").Return(nil)
		outbox.On("InsertWithTx", ctx, nil, mock.Anything).Return(errors.New("outbox full"))

		err := publisher.PublishRunCompleted(ctx, sampleRun(), "")
		assert.ErrorContains(t, err, "failed to insert outbox event")
		assert.False(t, tx.committed)
	})
}
