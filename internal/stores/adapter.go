// Package stores holds the per-storefront adapters: how to build a search
// URL for a code and where product data sits in each store's markup.
package stores

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/maltedev/price-scraper/internal/models"
)

var ErrUnknownStore = errors.New("unknown store")

// SelectorSet groups the DOM queries for one page shape. Every field may be
// a comma-joined union of CSS selectors; an empty field is not queried.
type SelectorSet struct {
	Container string `json:"container,omitempty"`
	Title     string `json:"title"`
	Online    string `json:"online,omitempty"`
	Regular   string `json:"regular,omitempty"`
	Card      string `json:"card,omitempty"`

	// OnlineAttr names an attribute to read off the online price element
	// when that element renders no text. Empty disables the fallback.
	OnlineAttr string `json:"online_attr,omitempty"`
}

// Price returns the selector configured for role.
func (s SelectorSet) Price(role models.PriceRole) string {
	switch role {
	case models.PriceOnline:
		return s.Online
	case models.PriceRegular:
		return s.Regular
	case models.PriceCard:
		return s.Card
	}
	return ""
}

// RedirectSpec detects a search that landed directly on a product page and
// supplies the selectors valid there.
type RedirectSpec struct {
	Matches   func(pageURL string) bool
	Selectors SelectorSet
}

// Adapter is one storefront. Adapters are values built once at startup.
type Adapter struct {
	Name      string
	URL       func(code string) string
	Selectors SelectorSet
	Redirect  *RedirectSpec
}

// Validate checks the structural invariants of an adapter.
func (a Adapter) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("adapter name is required")
	}
	if a.URL == nil {
		return fmt.Errorf("%s: URL builder is required", a.Name)
	}
	if a.Selectors.Container == "" || a.Selectors.Title == "" {
		return fmt.Errorf("%s: listing selectors need container and title", a.Name)
	}
	if a.Redirect != nil {
		if a.Redirect.Matches == nil {
			return fmt.Errorf("%s: redirect predicate is required", a.Name)
		}
		if a.Redirect.Selectors.Title == "" {
			return fmt.Errorf("%s: redirect selectors need a title", a.Name)
		}
	}
	return nil
}

const codePlaceholder = "{code}"

// URLTemplate returns a URL builder that substitutes {code}. Occurrences in
// the query string are query-escaped, occurrences in the path are
// path-escaped.
func URLTemplate(tmpl string) func(code string) string {
	path, query, hasQuery := strings.Cut(tmpl, "?")
	return func(code string) string {
		out := strings.ReplaceAll(path, codePlaceholder, url.PathEscape(code))
		if hasQuery {
			out += "?" + strings.ReplaceAll(query, codePlaceholder, url.QueryEscape(code))
		}
		return out
	}
}

// PathContains matches page URLs whose path contains any of fragments.
func PathContains(fragments ...string) func(pageURL string) bool {
	return func(pageURL string) bool {
		path := pageURL
		if u, err := url.Parse(pageURL); err == nil {
			path = u.Path
		}
		for _, f := range fragments {
			if strings.Contains(path, f) {
				return true
			}
		}
		return false
	}
}
