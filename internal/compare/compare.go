// Package compare aggregates per-marketplace quotes into the best
// price and fastest delivery for one product.
package compare

import (
	"regexp"
	"strconv"

	"github.com/leontonobunaga/amaprice/internal/models"
)

var (
	digitsOnly  = regexp.MustCompile(`[^\d]`)
	firstIntTok = regexp.MustCompile(`(\d+)`)
)

// Compare builds one combined list starting with the home marketplace
// quote followed by every other quote with a known price, then scans it
// twice: once for the minimum parsed price and once for the minimum
// leading delivery-day count. Strict less-than comparisons keep the
// earliest-seen source on ties.
func Compare(home models.SourceQuote, others []models.SourceQuote) models.ComparisonResult {
	combined := make([]models.SourceQuote, 0, len(others)+1)
	combined = append(combined, home)
	for _, q := range others {
		if q.Price.OK() {
			combined = append(combined, q)
		}
	}

	var result models.ComparisonResult

	minPrice := -1
	for _, q := range combined {
		price, ok := parsePrice(q.Price)
		if !ok {
			continue
		}
		if minPrice == -1 || price < minPrice {
			minPrice = price
			result.BestPrice = q.Price
			result.BestPriceSource = models.FieldOf(q.Source)
		}
	}

	minDays := -1
	for _, q := range combined {
		days, ok := firstDeliveryDays(q.Delivery)
		if !ok {
			continue
		}
		if minDays == -1 || days < minDays {
			minDays = days
			result.FastestDelivery = q.Delivery
			result.FastestDeliverySource = models.FieldOf(q.Source)
		}
	}

	return result
}

func parsePrice(price models.Field) (int, bool) {
	if !price.OK() {
		return 0, false
	}
	digits := digitsOnly.ReplaceAllString(price.Value(), "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// firstDeliveryDays reads the first integer token of a delivery string,
// the lower bound when the string expresses a range.
func firstDeliveryDays(delivery models.Field) (int, bool) {
	if !delivery.OK() {
		return 0, false
	}
	m := firstIntTok.FindStringSubmatch(delivery.Value())
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
