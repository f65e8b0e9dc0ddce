// Package identifier picks the search key used to look a product up on
// competing marketplaces.
package identifier

import (
	"github.com/leontonobunaga/amaprice/internal/models"
)

// Type names the kind of keyword a SearchKey carries.
type Type string

const (
	TypeJAN   Type = "JAN"
	TypeUPC   Type = "UPC"
	TypeEAN   Type = "EAN"
	TypeISBN  Type = "ISBN"
	TypeTitle Type = "title"
)

// maxTitleKeywordRunes caps the title fallback; full titles are too
// noisy as search input.
const maxTitleKeywordRunes = 50

// SearchKey is the cross-marketplace lookup keyword with its origin.
type SearchKey struct {
	Keyword string
	Type    Type
}

// Empty reports whether resolution produced no usable keyword.
func (k SearchKey) Empty() bool {
	return k.Keyword == ""
}

// Resolve returns the best search key in strict priority order
// JAN > UPC > EAN > ISBN > title. JAN is the domestic barcode standard
// and the most likely exact match; the title text is the weakest
// fallback and only used when no code was extracted.
func Resolve(ids models.IdentifierSet, title models.Field) SearchKey {
	switch {
	case ids.JAN.OK():
		return SearchKey{Keyword: ids.JAN.Value(), Type: TypeJAN}
	case ids.UPC.OK():
		return SearchKey{Keyword: ids.UPC.Value(), Type: TypeUPC}
	case ids.EAN.OK():
		return SearchKey{Keyword: ids.EAN.Value(), Type: TypeEAN}
	case ids.ISBN.OK():
		return SearchKey{Keyword: ids.ISBN.Value(), Type: TypeISBN}
	}

	return SearchKey{Keyword: truncateRunes(title.Value(), maxTitleKeywordRunes), Type: TypeTitle}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
