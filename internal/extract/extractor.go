package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/leontonobunaga/amaprice/internal/models"
)

const (
	// detailTableRows covers the label/value tables Amazon renders
	// product specifications into, across page templates.
	detailTableRows = "#productDetails_detailBullets_sections1 tr, #productDetails_techSpec_section_1 tr, .pdTab tr"

	// descriptionBoilerplate is the "see details" filler phrase that
	// shows up inside feature bullets and carries no information.
	descriptionBoilerplate = "詳細はこちら"

	descriptionMinRunes    = 10
	descriptionMaxParts    = 3
	descriptionJoiner      = "     "
	breadcrumbJoiner       = " > "
	breadcrumbSeparatorGlyph = "›"
)

// rule is one entry of an ordered extraction list. Rules are tried in
// order and the first non-empty result wins.
type rule struct {
	name string
	find func(doc *goquery.Document) string
}

// Extractor turns a rendered product page into an AttributeBag. It is
// stateless after construction and safe for concurrent use.
type Extractor struct {
	titleRules     []rule
	priceRules     []rule
	highPriceRules []rule

	weightPatterns    []*regexp.Regexp
	dimensionPatterns []*regexp.Regexp
	dayPattern        *regexp.Regexp

	codePatterns map[codeType][]*regexp.Regexp
	tableLabels  map[codeType]*regexp.Regexp

	weightLabels    *regexp.Regexp
	dimensionLabels *regexp.Regexp
}

type codeType string

const (
	codeJAN  codeType = "jan"
	codeUPC  codeType = "upc"
	codeEAN  codeType = "ean"
	codeISBN codeType = "isbn"
)

// codeLengths holds the accepted digit counts per identifier type. A
// match with any other length is rejected and the next pattern tried.
var codeLengths = map[codeType][]int{
	codeJAN:  {8, 13},
	codeUPC:  {12},
	codeEAN:  {8, 13},
	codeISBN: {10, 13},
}

func selectorRule(name, selector string) rule {
	return rule{
		name: name,
		find: func(doc *goquery.Document) string {
			return strings.TrimSpace(doc.Find(selector).First().Text())
		},
	}
}

func NewExtractor() *Extractor {
	return &Extractor{
		titleRules: []rule{
			selectorRule("product_title", "#productTitle"),
			selectorRule("generic_title", "#title"),
		},
		priceRules: []rule{
			selectorRule("price_whole", ".a-price-whole"),
			selectorRule("offscreen_price", ".a-offscreen"),
			selectorRule("deal_price", "#priceblock_dealprice"),
			selectorRule("our_price", "#priceblock_ourprice"),
		},
		highPriceRules: []rule{
			selectorRule("strike_price", ".a-text-strike"),
			selectorRule("secondary_price", ".a-price.a-text-price.a-size-base.a-color-secondary"),
		},
		weightPatterns: []*regexp.Regexp{
			regexp.MustCompile(`内容量[:\s]*([0-9.]+(?:kg|g|ml|l|グラム|キログラム|ミリリットル|リットル))`),
			regexp.MustCompile(`重量[:\s]*([0-9.]+(?:kg|g|グラム|キログラム))`),
			regexp.MustCompile(`重さ[:\s]*([0-9.]+(?:kg|g|グラム|キログラム))`),
		},
		dimensionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`サイズ[:\s]*([0-9.]+\s*[x×*]\s*[0-9.]+\s*[x×*]\s*[0-9.]+)`),
			regexp.MustCompile(`寸法[:\s]*([0-9.]+\s*[x×*]\s*[0-9.]+\s*[x×*]\s*[0-9.]+)`),
		},
		dayPattern: regexp.MustCompile(`(\d+)日`),
		codePatterns: map[codeType][]*regexp.Regexp{
			codeJAN: {
				regexp.MustCompile(`(?i)JAN[:\s]*([0-9]{13}|[0-9]{8})`),
				regexp.MustCompile(`商品コード[:\s]*([0-9]{13}|[0-9]{8})`),
				regexp.MustCompile(`バーコード[:\s]*([0-9]{13}|[0-9]{8})`),
			},
			codeUPC: {
				regexp.MustCompile(`(?i)UPC-A[:\s]*([0-9]{12})`),
				regexp.MustCompile(`(?i)UPC[:\s]*([0-9]{12})`),
			},
			codeEAN: {
				regexp.MustCompile(`(?i)EAN-13[:\s]*([0-9]{13})`),
				regexp.MustCompile(`(?i)EAN-8[:\s]*([0-9]{8})`),
				regexp.MustCompile(`(?i)EAN[:\s]*([0-9]{13}|[0-9]{8})`),
			},
			codeISBN: {
				regexp.MustCompile(`(?i)ISBN-13[:\s]*([0-9]{13})`),
				regexp.MustCompile(`(?i)ISBN-10[:\s]*([0-9]{10})`),
				regexp.MustCompile(`(?i)ISBN[:\s]*([0-9]{13}|[0-9]{10})`),
			},
		},
		tableLabels: map[codeType]*regexp.Regexp{
			codeJAN:  regexp.MustCompile(`(?i)JAN|商品コード|バーコード`),
			codeUPC:  regexp.MustCompile(`(?i)UPC`),
			codeEAN:  regexp.MustCompile(`(?i)EAN`),
			codeISBN: regexp.MustCompile(`(?i)ISBN`),
		},
		weightLabels:    regexp.MustCompile(`重量|重さ|内容量`),
		dimensionLabels: regexp.MustCompile(`サイズ|寸法|梱包サイズ`),
	}
}

// Extract parses the rendered page and fills an AttributeBag. A miss on
// any individual field is not an error; the field stays absent. The
// result is a pure function of the input HTML.
func (e *Extractor) Extract(html string) (models.AttributeBag, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.AttributeBag{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	bag := models.AttributeBag{
		Title:       e.firstMatch(doc, e.titleRules),
		Description: e.extractDescription(doc),
		Breadcrumb:  e.extractBreadcrumb(doc),
	}

	bag.CurrentPrice, bag.HighPrice = e.extractPrices(doc)

	shippingText := e.extractShippingText(doc)
	bag.ShippingText = models.FieldOf(strings.TrimSpace(shippingText))
	bag.IsPrime = strings.Contains(shippingText, "Prime") || doc.Find(".a-icon-prime").Length() > 0
	bag.NextDay = strings.Contains(shippingText, "明日") || strings.Contains(shippingText, "翌日")
	bag.DeliveryDays = e.extractDeliveryDays(shippingText)

	bag.Identifiers = e.extractIdentifiers(doc)
	bag.WeightRaw, bag.DimensionsRaw = e.extractSizeAndWeight(doc, bag.Description.Value())

	return bag, nil
}

// firstMatch walks an ordered rule list and returns the first rule's
// non-empty result. Later rules are never consulted after a hit.
func (e *Extractor) firstMatch(doc *goquery.Document, rules []rule) models.Field {
	for _, r := range rules {
		if text := r.find(doc); text != "" {
			return models.FieldOf(text)
		}
	}
	return models.NA()
}

func (e *Extractor) extractDescription(doc *goquery.Document) models.Field {
	var parts []string
	doc.Find("#feature-bullets ul li span, #productDescription p, .a-unordered-list .a-list-item").
		EachWithBreak(func(i int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if utf8.RuneCountInString(text) > descriptionMinRunes &&
				!strings.Contains(text, descriptionBoilerplate) {
				parts = append(parts, text)
			}
			return len(parts) < descriptionMaxParts
		})

	if len(parts) == 0 {
		return models.NA()
	}
	return models.FieldOf(strings.Join(parts, descriptionJoiner))
}

func (e *Extractor) extractBreadcrumb(doc *goquery.Document) models.Field {
	var segments []string
	doc.Find("#wayfinding-breadcrumbs_feature_div a, .a-breadcrumb a").
		Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && !strings.Contains(text, breadcrumbSeparatorGlyph) {
				segments = append(segments, text)
			}
		})

	if len(segments) == 0 {
		return models.NA()
	}
	return models.FieldOf(strings.Join(segments, breadcrumbJoiner))
}

func (e *Extractor) extractPrices(doc *goquery.Document) (current, high models.Field) {
	current = normalizePrice(e.firstMatch(doc, e.priceRules))
	high = normalizePrice(e.firstMatch(doc, e.highPriceRules))

	// A strike-through value identical to the current price is display
	// noise, not a genuine prior price.
	if high.OK() && high.Value() == current.Value() {
		high = models.NA()
	}
	return current, high
}

var nonPriceChars = regexp.MustCompile(`[^\d,]`)

func normalizePrice(f models.Field) models.Field {
	if !f.OK() {
		return f
	}
	return models.FieldOf(nonPriceChars.ReplaceAllString(f.Value(), ""))
}

// extractShippingText unions the delivery-related page regions into a
// single blob the boolean and day-range derivations run over.
func (e *Extractor) extractShippingText(doc *goquery.Document) string {
	var blob strings.Builder
	doc.Find("#deliveryBlockMessage, #mir-layout-DELIVERY_BLOCK, .a-color-success, .a-color-price").
		Each(func(i int, s *goquery.Selection) {
			blob.WriteString(s.Text())
			blob.WriteString(" ")
		})
	return blob.String()
}

func (e *Extractor) extractDeliveryDays(shippingText string) models.Field {
	matches := e.dayPattern.FindAllStringSubmatch(shippingText, -1)
	if len(matches) == 0 {
		return models.NA()
	}

	min, max := -1, -1
	for _, m := range matches {
		days, _ := strconv.Atoi(m[1])
		if min == -1 || days < min {
			min = days
		}
		if days > max {
			max = days
		}
	}

	if min == max {
		return models.FieldOf(fmt.Sprintf("%d日", min))
	}
	return models.FieldOf(fmt.Sprintf("%d日-%d日", min, max))
}

// extractIdentifiers runs two passes: free-text regexes over the whole
// body first, then the detail-table label scan which only fills codes
// the first pass left unset.
func (e *Extractor) extractIdentifiers(doc *goquery.Document) models.IdentifierSet {
	bodyText := doc.Find("body").Text()

	codes := map[codeType]models.Field{}
	for ct, patterns := range e.codePatterns {
		for _, pattern := range patterns {
			m := pattern.FindStringSubmatch(bodyText)
			if len(m) > 1 && validCodeLength(ct, m[1]) {
				codes[ct] = models.FieldOf(m[1])
				break
			}
		}
	}

	digitRun := regexp.MustCompile(`[0-9]{8,13}`)
	doc.Find(detailTableRows).Each(func(i int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("td:first-child, th:first-child").Text())
		value := strings.TrimSpace(row.Find("td:last-child").Text())
		if label == "" || value == "" {
			return
		}

		for ct, labelPattern := range e.tableLabels {
			if codes[ct].OK() || !labelPattern.MatchString(label) {
				continue
			}
			if code := digitRun.FindString(value); validCodeLength(ct, code) {
				codes[ct] = models.FieldOf(code)
			}
		}
	})

	return models.IdentifierSet{
		JAN:  codes[codeJAN],
		UPC:  codes[codeUPC],
		EAN:  codes[codeEAN],
		ISBN: codes[codeISBN],
	}
}

func validCodeLength(ct codeType, code string) bool {
	for _, n := range codeLengths[ct] {
		if len(code) == n {
			return true
		}
	}
	return false
}

// extractSizeAndWeight tries the description text first, then falls
// back to the detail-table label scan for whichever of the two raw
// strings is still unset.
func (e *Extractor) extractSizeAndWeight(doc *goquery.Document, description string) (weight, dimensions models.Field) {
	for _, pattern := range e.weightPatterns {
		if m := pattern.FindStringSubmatch(description); len(m) > 1 {
			weight = models.FieldOf(m[1])
			break
		}
	}
	for _, pattern := range e.dimensionPatterns {
		if m := pattern.FindStringSubmatch(description); len(m) > 1 {
			dimensions = models.FieldOf(m[1])
			break
		}
	}

	if weight.OK() && dimensions.OK() {
		return weight, dimensions
	}

	doc.Find(detailTableRows).Each(func(i int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("td:first-child, th:first-child").Text())
		value := strings.TrimSpace(row.Find("td:last-child").Text())
		if label == "" || value == "" {
			return
		}

		if !weight.OK() && e.weightLabels.MatchString(label) {
			weight = models.FieldOf(value)
		}
		if !dimensions.OK() && e.dimensionLabels.MatchString(label) {
			dimensions = models.FieldOf(value)
		}
	})

	return weight, dimensions
}
