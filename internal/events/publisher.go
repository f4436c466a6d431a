package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/price-scraper/internal/database"
	"github.com/maltedev/price-scraper/internal/models"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypePriceRunCompleted is published once a run has been stored
	EventTypePriceRunCompleted EventType = "PRICE_RUN_COMPLETED"

	aggregateType = "price_run"
)

// StorePrice is one store's outcome for a code inside the event payload.
type StorePrice struct {
	Store        string `json:"store"`
	Available    bool   `json:"available"`
	Product      string `json:"product,omitempty"`
	PriceOnline  string `json:"price_online,omitempty"`
	PriceRegular string `json:"price_regular,omitempty"`
	PriceCard    string `json:"price_card,omitempty"`
}

// PriceRunCompletedPayload represents the payload for PRICE_RUN_COMPLETED
type PriceRunCompletedPayload struct {
	EventID    string                  `json:"event_id"`
	EventType  string                  `json:"event_type"`
	Timestamp  time.Time               `json:"timestamp"`
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Summary    models.Summary          `json:"summary"`
	OutputFile string                  `json:"output_file,omitempty"`
	Codes      map[string][]StorePrice `json:"codes"`
	Source     string                  `json:"source"`
}

// NewPriceRunCompletedPayload groups the rows of run by code. Only stores
// where the product was found are listed; a code found nowhere maps to an
// empty list.
func NewPriceRunCompletedPayload(run *models.Run, outputFile string) *PriceRunCompletedPayload {
	codes := make(map[string][]StorePrice)
	for _, row := range run.Rows {
		if _, ok := codes[row.Code]; !ok {
			codes[row.Code] = []StorePrice{}
		}
		if !row.Available {
			continue
		}
		codes[row.Code] = append(codes[row.Code], StorePrice{
			Store:        row.Store,
			Available:    true,
			Product:      row.Product,
			PriceOnline:  row.PriceOnline,
			PriceRegular: row.PriceRegular,
			PriceCard:    row.PriceCard,
		})
	}

	return &PriceRunCompletedPayload{
		RunID:      run.ID.String(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary(),
		OutputFile: outputFile,
		Codes:      codes,
	}
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

type RunWriter interface {
	SaveWithTx(ctx context.Context, tx pgx.Tx, run *models.Run, outputFile string) error
}

type OutboxWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error
}

// Publisher stores runs and their completion event atomically
// (transactional outbox).
type Publisher struct {
	db     Transactor
	runs   RunWriter
	outbox OutboxWriter
	stream string
	logger *slog.Logger
}

// NewPublisher creates a publisher writing to stream.
func NewPublisher(db *database.DB, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		runs:   database.NewRunRepository(db),
		outbox: database.NewOutboxRepository(db),
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishRunCompleted saves run with its rows and enqueues a
// PRICE_RUN_COMPLETED event in the same transaction.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *models.Run, outputFile string) error {
	payload := NewPriceRunCompletedPayload(run, outputFile)
	payload.EventID = uuid.New().String()
	payload.EventType = string(EventTypePriceRunCompleted)
	payload.Timestamp = time.Now()
	payload.Source = "scraper"

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   payload.RunID,
		EventType:     payload.EventType,
		Payload:       data,
		TargetStream:  p.stream,
	}

	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.runs.SaveWithTx(ctx, tx, run, outputFile); err != nil {
			return err
		}
		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("run stored and event queued",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"run_id", payload.RunID,
		"outbox_id", outboxEvent.ID,
	)

	return nil
}
