// Package shipping classifies products into logistics tiers from the
// raw weight and dimension strings the extractor found.
package shipping

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// Thresholds are domain constants of the domestic parcel tiers: 500 g
// for small-packet shipping, and the 100/120 size classes defined as
// the sum of the three outer dimensions.
const (
	weightLimitGrams = 500
	sizeLimit100     = 100
	sizeLimit120     = 120
)

var (
	weightPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:g|kg|グラム|キログラム)`)

	// Three numerics separated by x, × or *, optional whitespace.
	dimensionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[x×*]\s*(\d+(?:\.\d+)?)\s*[x×*]\s*(\d+(?:\.\d+)?)`)
)

// Classify derives the eligibility flags from the raw strings. It never
// fails: unparseable input yields false flags and a nil TotalSize, not
// a zero measurement.
func Classify(weightRaw, dimensionsRaw models.Field) models.ShippingClass {
	total := TotalSize(dimensionsRaw)

	class := models.ShippingClass{
		WeightUnder500g: WeightUnderLimit(weightRaw),
		TotalSize:       total,
	}
	if total != nil {
		class.SizeUnder100 = *total <= sizeLimit100
		class.SizeUnder120 = *total <= sizeLimit120
	}
	return class
}

// WeightUnderLimit reports whether the raw weight string denotes at
// most 500 g. Kilogram values (including the localized spelling) are
// converted before thresholding. A string without a recognizable unit
// is never eligible.
func WeightUnderLimit(weightRaw models.Field) bool {
	if !weightRaw.OK() {
		return false
	}

	m := weightPattern.FindStringSubmatch(weightRaw.Value())
	if m == nil {
		return false
	}

	grams, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return false
	}

	lower := strings.ToLower(weightRaw.Value())
	if strings.Contains(lower, "kg") || strings.Contains(lower, "キログラム") {
		grams *= 1000
	}

	return grams <= weightLimitGrams
}

// TotalSize sums the three dimensions, or returns nil when the string
// does not contain exactly three separated numerics. Dimensions are
// summed without unit conversion; source data rarely states units
// consistently enough to convert.
func TotalSize(dimensionsRaw models.Field) *float64 {
	if !dimensionsRaw.OK() {
		return nil
	}

	m := dimensionPattern.FindStringSubmatch(dimensionsRaw.Value())
	if m == nil {
		return nil
	}

	var total float64
	for _, part := range m[1:] {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil
		}
		total += v
	}
	return &total
}
