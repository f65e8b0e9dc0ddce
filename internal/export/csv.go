// Package export writes finished product records to CSV for the
// operator-facing report.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// marketplaceOrder fixes the per-source column layout.
var marketplaceOrder = []string{"rakuten", "yahoo", "yodobashi", "yamada", "bic"}

// Header lists the CSV columns in output order. Absent fields render
// as N/A.
func Header() []string {
	cols := []string{
		"captured_at",
		"category",
		"rank",
		"asin",
		"title",
		"current_price",
		"high_price",
		"description",
		"breadcrumb",
		"is_prime",
		"next_day",
		"delivery_days",
		"shipping_text",
		"jan",
		"upc",
		"ean",
		"isbn",
		"weight",
		"dimensions",
		"weight_under_500g",
		"size_under_100",
		"size_under_120",
		"total_size",
	}
	for _, m := range marketplaceOrder {
		cols = append(cols, m+"_price", m+"_delivery", m+"_url")
	}
	cols = append(cols,
		"best_price",
		"best_price_source",
		"fastest_delivery",
		"fastest_delivery_source",
		"ng_flagged",
		"ng_terms",
	)
	return cols
}

// Row flattens one record into CSV cells matching Header.
func Row(r *models.ProductRecord) []string {
	a := r.Attributes
	row := []string{
		r.CapturedAt.Format(time.RFC3339),
		r.CategoryName,
		strconv.Itoa(r.Rank),
		r.ASIN,
		a.Title.Export(),
		a.CurrentPrice.Export(),
		a.HighPrice.Export(),
		a.Description.Export(),
		a.Breadcrumb.Export(),
		strconv.FormatBool(a.IsPrime),
		strconv.FormatBool(a.NextDay),
		a.DeliveryDays.Export(),
		a.ShippingText.Export(),
		a.Identifiers.JAN.Export(),
		a.Identifiers.UPC.Export(),
		a.Identifiers.EAN.Export(),
		a.Identifiers.ISBN.Export(),
		a.WeightRaw.Export(),
		a.DimensionsRaw.Export(),
		strconv.FormatBool(r.Shipping.WeightUnder500g),
		strconv.FormatBool(r.Shipping.SizeUnder100),
		strconv.FormatBool(r.Shipping.SizeUnder120),
		formatTotalSize(r.Shipping.TotalSize),
	}
	for _, m := range marketplaceOrder {
		q := r.QuoteFor(m)
		row = append(row, q.Price.Export(), q.Delivery.Export(), q.URL.Export())
	}
	row = append(row,
		r.Comparison.BestPrice.Export(),
		r.Comparison.BestPriceSource.Export(),
		r.Comparison.FastestDelivery.Export(),
		r.Comparison.FastestDeliverySource.Export(),
		strconv.FormatBool(r.Screen.Flagged),
		joinTerms(r.Screen.MatchedTerms),
	)
	return row
}

// Write streams records as CSV, header first.
func Write(w io.Writer, records []*models.ProductRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to a new file at path.
func WriteFile(path string, records []*models.ProductRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func formatTotalSize(v *float64) string {
	if v == nil {
		return models.NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func joinTerms(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	out := terms[0]
	for _, t := range terms[1:] {
		out += ";" + t
	}
	return out
}
