package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/price-scraper/internal/extract"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/maltedev/price-scraper/internal/stores"
)

// Phase is the state of one (code, store) visit. A visit moves forward
// only; a failure jumps straight to PhaseNormalized.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseNavigating Phase = "navigating"
	PhaseClassified Phase = "classified"
	PhaseExtracted  Phase = "extracted"
	PhaseNormalized Phase = "normalized"
)

// Visit is the outcome of one (code, store) pair.
type Visit struct {
	Code           string
	Store          string
	Phase          Phase
	Classification extract.Classification
	Row            models.ResultRow
	Err            error
}

// Status is the progress label logged for a visit.
func (v Visit) Status() string {
	switch {
	case v.Err != nil:
		return "error"
	case v.Row.Available:
		return "found"
	default:
		return "not_found"
	}
}

// Runner visits every code against every store on a single page.
type Runner struct {
	page     Page
	stores   *stores.Registry
	resolver *Resolver
	pacer    Pacer
	logger   *slog.Logger
}

func NewRunner(page Page, registry *stores.Registry, timeouts Timeouts, pacer Pacer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		page:     page,
		stores:   registry,
		resolver: NewResolver(timeouts, logger),
		pacer:    pacer,
		logger:   logger.With("component", "runner"),
	}
}

// Run visits codes in order and, for each code, the stores in registry
// order. Per-visit failures become NOT FOUND rows and never stop the loop.
// If ctx is cancelled the loop stops between visits and the rows collected
// so far are returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context, codes []string) (*models.Run, error) {
	run := models.NewRun()
	adapters := r.stores.All()
	total := len(codes) * len(adapters)

	r.logger.Info("run started", "run_id", run.ID, "codes", len(codes), "stores", len(adapters))

	n := 0
	for _, code := range codes {
		r.logger.Info("processing code", "code", code)

		for _, adapter := range adapters {
			if err := ctx.Err(); err != nil {
				return r.finish(run, err)
			}

			v := r.visit(code, adapter)
			run.Append(v.Row, v.Err)
			n++

			if v.Err != nil {
				r.logger.Warn("store visit failed", "store", v.Store, "code", code, "error", v.Err)
			} else {
				r.logger.Info("store visited", "store", v.Store, "code", code,
					"status", v.Status(), "product", v.Row.Product)
			}

			if n < total && r.pacer != nil {
				if err := r.pacer.Wait(ctx); err != nil {
					return r.finish(run, err)
				}
			}
		}
	}

	return r.finish(run, nil)
}

func (r *Runner) finish(run *models.Run, err error) (*models.Run, error) {
	run.Finish()
	s := run.Summary()

	if err != nil {
		r.logger.Warn("run interrupted", "run_id", run.ID, "rows", s.Total, "error", err)
		return run, err
	}

	if s.Found == 0 {
		r.logger.Info("run finished with no results", "run_id", run.ID, "rows", s.Total,
			"not_found", s.NotFound, "errors", s.Errors)
	} else {
		r.logger.Info("run finished", "run_id", run.ID, "rows", s.Total, "found", s.Found,
			"not_found", s.NotFound, "errors", s.Errors, "duration", run.FinishedAt.Sub(run.StartedAt))
	}

	return run, nil
}

// visit runs one pair through the phases and always yields exactly one row.
func (r *Runner) visit(code string, adapter stores.Adapter) Visit {
	v := Visit{Code: code, Store: adapter.Name, Phase: PhaseIdle}

	var rec *models.ProductRecord

	r.advance(&v, PhaseNavigating)
	pc, err := r.resolver.Resolve(r.page, adapter, code)
	if err == nil {
		v.Classification = pc.Classification
		r.advance(&v, PhaseClassified)

		rec, err = extract.Extract(r.page.Root(), pc)
		if err == nil && pc.Classification == extract.Direct && !rec.Found() {
			r.logger.Info("no title on product page, reading it as a listing", "store", adapter.Name, "code", code)
			pc = r.resolver.Listing(r.page, adapter)
			v.Classification = pc.Classification
			rec, err = extract.Extract(r.page.Root(), pc)
		}
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrExtraction, adapter.Name, err)
		} else {
			r.advance(&v, PhaseExtracted)
		}
	}

	v.Err = err
	v.Row = models.NewResultRow(code, adapter.Name, rec, err)
	r.advance(&v, PhaseNormalized)

	return v
}

func (r *Runner) advance(v *Visit, next Phase) {
	r.logger.Debug("phase", "store", v.Store, "code", v.Code, "from", v.Phase, "to", next)
	v.Phase = next
}
