package models

import (
	"time"
)

// IdentifierSet holds the product codes found on a product page. Each
// code satisfies its digit-length constraint when present (JAN 8 or 13,
// UPC 12, EAN 8 or 13, ISBN 10 or 13).
type IdentifierSet struct {
	JAN  Field `json:"jan"`
	UPC  Field `json:"upc"`
	EAN  Field `json:"ean"`
	ISBN Field `json:"isbn"`
}

// AttributeBag is the extractor output for one product page. Every
// field is always present, defaulted to absent when no rule matched.
type AttributeBag struct {
	Title         Field         `json:"title"`
	Description   Field         `json:"description"`
	Breadcrumb    Field         `json:"breadcrumb"`
	CurrentPrice  Field         `json:"current_price"`
	HighPrice     Field         `json:"high_price"`
	ShippingText  Field         `json:"shipping_text"`
	IsPrime       bool          `json:"is_prime"`
	NextDay       bool          `json:"next_day"`
	DeliveryDays  Field         `json:"delivery_days"`
	WeightRaw     Field         `json:"weight_raw"`
	DimensionsRaw Field         `json:"dimensions_raw"`
	Identifiers   IdentifierSet `json:"identifiers"`
}

// ShippingClass captures logistics-tier eligibility. TotalSize is the
// sum of the three parsed dimensions, nil when fewer than three numeric
// dimensions were found.
type ShippingClass struct {
	WeightUnder500g bool     `json:"weight_under_500g"`
	SizeUnder100    bool     `json:"size_under_100"`
	SizeUnder120    bool     `json:"size_under_120"`
	TotalSize       *float64 `json:"total_size,omitempty"`
}

// SourceQuote is one marketplace's observed price, delivery estimate
// and URL for a resolved product.
type SourceQuote struct {
	Source   string `json:"source"`
	Price    Field  `json:"price"`
	Delivery Field  `json:"delivery"`
	URL      Field  `json:"url"`
}

// UnavailableQuote is the quote returned when a marketplace lookup
// fails or finds nothing.
func UnavailableQuote(source string) SourceQuote {
	return SourceQuote{Source: source}
}

// ComparisonResult is recomputed per product, never stored standalone.
type ComparisonResult struct {
	BestPrice             Field `json:"best_price"`
	BestPriceSource       Field `json:"best_price_source"`
	FastestDelivery       Field `json:"fastest_delivery"`
	FastestDeliverySource Field `json:"fastest_delivery_source"`
}

// ScreenResult is the content screener verdict, attached verbatim.
type ScreenResult struct {
	Flagged      bool     `json:"flagged"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

// RankingEntry is one position on a best-sellers ranking page.
type RankingEntry struct {
	CategoryName string `json:"category_name"`
	Rank         int    `json:"rank"`
	ASIN         string `json:"asin"`
	Name         string `json:"name"`
	DetailURL    string `json:"detail_url"`
}

// Category is one configured crawl target with its ranking page URLs.
type Category struct {
	Name string   `json:"name" yaml:"name"`
	URLs []string `json:"urls" yaml:"urls"`
}

// ProductRecord is the final per-product aggregate. It is created once
// by the pipeline and immutable afterwards.
type ProductRecord struct {
	ID           string           `json:"id"`
	CapturedAt   time.Time        `json:"captured_at"`
	CategoryName string           `json:"category_name"`
	Rank         int              `json:"rank"`
	ASIN         string           `json:"asin"`
	Attributes   AttributeBag     `json:"attributes"`
	Shipping     ShippingClass    `json:"shipping"`
	Quotes       []SourceQuote    `json:"quotes"`
	Comparison   ComparisonResult `json:"comparison"`
	Screen       ScreenResult     `json:"screen"`
}

// QuoteFor returns the quote for the named marketplace, or an
// unavailable quote when that source was never consulted.
func (r *ProductRecord) QuoteFor(source string) SourceQuote {
	for _, q := range r.Quotes {
		if q.Source == source {
			return q
		}
	}
	return UnavailableQuote(source)
}
