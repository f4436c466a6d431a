// Package scraper drives one shared browser page through every
// (code, store) pair: resolve the page, extract the product, normalise it
// into a result row.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/price-scraper/internal/dom"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrExtraction = errors.New("extraction failed")
)

// Page is the browser surface the scraper needs. Implementations are not
// safe for concurrent use; the runner never calls them concurrently.
type Page interface {
	// Goto loads url and returns once the DOM is constructed.
	Goto(url string, timeout time.Duration) error
	// URL is the address of the loaded page after any redirects.
	URL() string
	// WaitForSelector blocks until selector is attached or timeout passes.
	WaitForSelector(selector string, timeout time.Duration) error
	// Root is the whole document as a DOM scope.
	Root() dom.Scope
}

// Pacer spaces out consecutive visits.
type Pacer interface {
	Wait(ctx context.Context) error
}
