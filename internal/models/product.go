package models

// PriceRole names one of the prices a storefront can show for a product.
type PriceRole string

const (
	PriceOnline  PriceRole = "online"
	PriceRegular PriceRole = "regular"
	PriceCard    PriceRole = "cardOrLoyalty"
)

// PriceRoles lists every role in export column order.
var PriceRoles = []PriceRole{PriceOnline, PriceRegular, PriceCard}

// ProductRecord is what a single page visit yielded. Title and prices are
// optional: a nil title or a role missing from the map means the selector
// matched nothing, which is different from matching an element with no text.
type ProductRecord struct {
	title  *string
	prices map[PriceRole]string
}

// NewProductRecord copies its inputs so the record cannot change afterwards.
func NewProductRecord(title *string, prices map[PriceRole]string) *ProductRecord {
	rec := &ProductRecord{prices: make(map[PriceRole]string, len(prices))}
	if title != nil {
		t := *title
		rec.title = &t
	}
	for role, value := range prices {
		rec.prices[role] = value
	}
	return rec
}

// Title returns the product title and whether one was resolved.
func (p *ProductRecord) Title() (string, bool) {
	if p == nil || p.title == nil {
		return "", false
	}
	return *p.title, true
}

// Price returns the price for role and whether it was resolved.
func (p *ProductRecord) Price(role PriceRole) (string, bool) {
	if p == nil {
		return "", false
	}
	value, ok := p.prices[role]
	return value, ok
}

// Found reports whether the record counts as a match. A record without a
// title is "not found" regardless of any prices it carries.
func (p *ProductRecord) Found() bool {
	_, ok := p.Title()
	return ok
}
