// Package extract turns a rendered page into a product record using one
// SelectorSet. It knows nothing about stores or browsers.
package extract

import (
	"fmt"
	"strings"

	"github.com/maltedev/price-scraper/internal/dom"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/maltedev/price-scraper/internal/stores"
)

// Classification says how the resolved page must be scoped.
type Classification string

const (
	// Listing is a search results page; fields are read inside the first
	// product container.
	Listing Classification = "listing"
	// Direct is a single product page; fields are read off the whole page.
	Direct Classification = "direct"
)

// PageContext is what the resolver hands to the extractor. It carries only
// selector strings.
type PageContext struct {
	Classification Classification
	Selectors      stores.SelectorSet
}

// Extract reads one product out of root. A nil record with a nil error means
// the page has no product container; a record without a title means the
// container held no recognisable product. Errors come from the DOM backend.
func Extract(root dom.Scope, pc PageContext) (*models.ProductRecord, error) {
	switch pc.Classification {
	case Direct:
		return extractFields(root, pc.Selectors, []models.PriceRole{models.PriceOnline, models.PriceRegular})
	case Listing:
		container, ok, err := dom.FirstOf(root, pc.Selectors.Container)
		if err != nil {
			return nil, fmt.Errorf("container: %w", err)
		}
		if !ok {
			return nil, nil
		}
		return extractFields(container, pc.Selectors, models.PriceRoles)
	default:
		return nil, fmt.Errorf("unknown page classification %q", pc.Classification)
	}
}

func extractFields(scope dom.Scope, sel stores.SelectorSet, roles []models.PriceRole) (*models.ProductRecord, error) {
	title, err := field(scope, sel.Title, "")
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	prices := make(map[models.PriceRole]string, len(roles))
	for _, role := range roles {
		attr := ""
		if role == models.PriceOnline {
			attr = sel.OnlineAttr
		}

		value, err := field(scope, sel.Price(role), attr)
		if err != nil {
			return nil, fmt.Errorf("%s price: %w", role, err)
		}
		if value != nil {
			prices[role] = *value
		}
	}

	return models.NewProductRecord(title, prices), nil
}

// field resolves one selector to trimmed text. nil means absent: no selector
// configured, no element, or an element with no text and no usable
// fallback attribute.
func field(scope dom.Scope, selector, fallbackAttr string) (*string, error) {
	if selector == "" {
		return nil, nil
	}

	el, ok, err := dom.FirstOf(scope, selector)
	if err != nil || !ok {
		return nil, err
	}

	text, err := el.Text()
	if err != nil {
		return nil, err
	}
	if text = strings.TrimSpace(text); text != "" {
		return &text, nil
	}

	if fallbackAttr == "" {
		return nil, nil
	}

	value, ok, err := el.Attr(fallbackAttr)
	if err != nil || !ok {
		return nil, err
	}
	if value = strings.TrimSpace(value); value != "" {
		return &value, nil
	}
	return nil, nil
}
