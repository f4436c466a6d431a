package stores

// defaultAdapters is the store table. Order matters: it is the visiting
// order for every code.
//
// Wong and Metro render VTEX product summaries with the stock "vtex-" class
// prefix; Vivanda runs the same theme under a "vivanda-" prefix. Plaza Vea
// uses its own "Showcase" markup, whose sale price element sometimes carries
// the amount only in data-price.
func defaultAdapters() []Adapter {
	return []Adapter{
		{
			Name: "Plaza Vea",
			URL:  URLTemplate("https://www.plazavea.com.pe/search/?_query={code}"),
			Selectors: SelectorSet{
				Container:  ".Showcase",
				Title:      ".Showcase__name",
				Online:     ".Showcase__salePrice",
				Regular:    ".Showcase__oldPrice",
				Card:       ".Showcase__ohPrice",
				OnlineAttr: "data-price",
			},
		},
		{
			Name: "Vivanda",
			URL:  URLTemplate("https://www.vivanda.com.pe/{code}?_q={code}&map=ft"),
			Selectors: SelectorSet{
				Container: "article, .vivanda-product-summary-2-x-container, .vtex-product-summary-2-x-container",
				Title:     ".vivanda-product-summary-2-x-brandName, .vivanda-product-summary-2-x-productBrand",
				Online:    ".vivanda-product-price-1-x-sellingPriceWithTax",
				Regular:   ".vivanda-product-price-1-x-listPriceWithTax",
			},
		},
		{
			Name: "Wong",
			URL:  URLTemplate("https://www.wong.pe/{code}?_q={code}&map=ft"),
			Selectors: SelectorSet{
				Container: "article, .vtex-product-summary-2-x-container",
				Title:     ".vtex-product-summary-2-x-brandName, .vtex-product-summary-2-x-productBrand",
				Online:    ".vtex-product-price-1-x-sellingPriceValue, .vtex-product-price-1-x-sellingPriceValue--product-online-price",
				Regular:   ".vtex-product-price-1-x-listPriceValue",
			},
		},
		{
			Name: "Metro",
			URL:  URLTemplate("https://www.metro.pe/{code}?_q={code}&map=ft"),
			Selectors: SelectorSet{
				Container: "article, .vtex-product-summary-2-x-container",
				Title:     ".vtex-product-summary-2-x-brandName, .vtex-product-summary-2-x-productBrand",
				Online:    ".vtex-product-price-1-x-sellingPriceValue",
				Regular:   ".vtex-product-price-1-x-listPriceValue",
			},
		},
		{
			Name: "Tottus",
			URL:  URLTemplate("https://www.tottus.com.pe/tottus-pe/buscar?Ntt={code}"),
			Selectors: SelectorSet{
				Container: "li.product-item",
				Title:     ".pod-link b, .item-product-caption b",
				Online:    ".price-selector.internet .active-price span, .price.internet",
				Regular:   ".price-selector.regular .active-price span, .price.regular",
				Card:      ".price-selector.cmr .active-price span, .price.cmr",
			},
			// searches for an exact SKU often land on the product page
			Redirect: &RedirectSpec{
				Matches: PathContains("/articulo/", "/p/"),
				Selectors: SelectorSet{
					Title:   "h1.product-name, .product-name",
					Online:  `span.primary.senary.bold, .prices-0-x-sellingPriceValue, div[class*="active-price"] span`,
					Regular: "span.copy1.crossed, .prices-0-x-listPriceValue",
				},
			},
		},
	}
}
