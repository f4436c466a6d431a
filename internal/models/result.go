package models

// NotFound is the product value exported for pairs without a match.
const NotFound = "NOT FOUND"

// ResultRow is the flat, exported shape of one (code, store) visit.
type ResultRow struct {
	Code         string `json:"code"`
	Store        string `json:"store"`
	Available    bool   `json:"available"`
	Product      string `json:"product"`
	PriceOnline  string `json:"price_online"`
	PriceRegular string `json:"price_regular"`
	PriceCard    string `json:"price_card"`
}

// CSVHeader is the column order of the exported file.
var CSVHeader = []string{"Codigo", "Tienda", "Producto", "Precio Online", "Precio Regular", "Precio Tarjeta"}

// Record returns the row in CSVHeader order.
func (r ResultRow) Record() []string {
	return []string{r.Code, r.Store, r.Product, r.PriceOnline, r.PriceRegular, r.PriceCard}
}

// NewResultRow converts the outcome of one visit into its exported row.
// Absent fields become empty strings here and nowhere earlier. A non-nil
// err yields the not-found row; the message itself is not part of the row.
func NewResultRow(code, store string, rec *ProductRecord, err error) ResultRow {
	row := ResultRow{
		Code:    code,
		Store:   store,
		Product: NotFound,
	}

	if err != nil {
		return row
	}

	title, ok := rec.Title()
	if !ok {
		return row
	}

	row.Available = true
	row.Product = title
	row.PriceOnline, _ = rec.Price(PriceOnline)
	row.PriceRegular, _ = rec.Price(PriceRegular)
	row.PriceCard, _ = rec.Price(PriceCard)

	return row
}
