package scraper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/price-scraper/internal/extract"
	"github.com/maltedev/price-scraper/internal/stores"
)

// Timeouts bounds every wait the resolver performs on a page.
type Timeouts struct {
	Navigation    time.Duration
	RedirectWait  time.Duration
	ContainerWait time.Duration
	SettleDelay   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:    30 * time.Second,
		RedirectWait:  5 * time.Second,
		ContainerWait: 8 * time.Second,
		SettleDelay:   4 * time.Second,
	}
}

// listingWait is how long a listing page gets to render its first product
// container: the container wait or the settle delay, whichever ends first.
func (t Timeouts) listingWait() time.Duration {
	if t.SettleDelay > 0 && t.SettleDelay < t.ContainerWait {
		return t.SettleDelay
	}
	return t.ContainerWait
}

// Resolver loads a store's search page for a code and decides which
// selector set applies to what came back.
type Resolver struct {
	timeouts Timeouts
	logger   *slog.Logger
}

func NewResolver(timeouts Timeouts, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		timeouts: timeouts,
		logger:   logger.With("component", "resolver"),
	}
}

// Resolve navigates page to the adapter's URL for code and classifies the
// result. Only navigation itself can fail; selectors that never show up are
// left for the extractor to discover.
func (r *Resolver) Resolve(page Page, adapter stores.Adapter, code string) (extract.PageContext, error) {
	url := adapter.URL(code)
	r.logger.Info("navigating", "store", adapter.Name, "code", code, "url", url)

	if err := page.Goto(url, r.timeouts.Navigation); err != nil {
		return extract.PageContext{}, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	if adapter.Redirect != nil && adapter.Redirect.Matches(page.URL()) {
		r.logger.Info("redirected to product page", "store", adapter.Name, "code", code, "url", page.URL())

		sel := adapter.Redirect.Selectors
		if err := page.WaitForSelector(sel.Title, r.timeouts.RedirectWait); err != nil {
			r.logger.Debug("product title did not appear", "store", adapter.Name, "error", err)
		}

		return extract.PageContext{Classification: extract.Direct, Selectors: sel}, nil
	}

	return r.Listing(page, adapter), nil
}

// Listing waits for the adapter's first product container on the current
// page and returns the listing context for it. The runner also uses it when
// a product page yields no title.
func (r *Resolver) Listing(page Page, adapter stores.Adapter) extract.PageContext {
	sel := adapter.Selectors
	if err := page.WaitForSelector(sel.Container, r.timeouts.listingWait()); err != nil {
		r.logger.Debug("product container did not appear", "store", adapter.Name, "error", err)
	}

	return extract.PageContext{Classification: extract.Listing, Selectors: sel}
}
