package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leontonobunaga/amaprice/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		ids         models.IdentifierSet
		title       models.Field
		wantKeyword string
		wantType    Type
	}{
		{
			name: "JAN wins over every other code",
			ids: models.IdentifierSet{
				JAN:  models.FieldOf("4901234567894"),
				UPC:  models.FieldOf("012345678905"),
				EAN:  models.FieldOf("4012345678901"),
				ISBN: models.FieldOf("9784123456789"),
			},
			title:       models.FieldOf("電気ケトル"),
			wantKeyword: "4901234567894",
			wantType:    TypeJAN,
		},
		{
			name: "UPC wins when JAN is absent",
			ids: models.IdentifierSet{
				UPC: models.FieldOf("012345678905"),
				EAN: models.FieldOf("4012345678901"),
			},
			title:       models.FieldOf("電気ケトル"),
			wantKeyword: "012345678905",
			wantType:    TypeUPC,
		},
		{
			name: "EAN wins over ISBN",
			ids: models.IdentifierSet{
				EAN:  models.FieldOf("4012345678901"),
				ISBN: models.FieldOf("9784123456789"),
			},
			title:       models.FieldOf("電気ケトル"),
			wantKeyword: "4012345678901",
			wantType:    TypeEAN,
		},
		{
			name: "ISBN before the title fallback",
			ids: models.IdentifierSet{
				ISBN: models.FieldOf("9784123456789"),
			},
			title:       models.FieldOf("Go言語による並行処理"),
			wantKeyword: "9784123456789",
			wantType:    TypeISBN,
		},
		{
			name:        "title fallback when no code was extracted",
			ids:         models.IdentifierSet{},
			title:       models.FieldOf("電気ケトル 1.2L ホワイト"),
			wantKeyword: "電気ケトル 1.2L ホワイト",
			wantType:    TypeTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := Resolve(tt.ids, tt.title)
			assert.Equal(t, tt.wantKeyword, key.Keyword)
			assert.Equal(t, tt.wantType, key.Type)
			assert.False(t, key.Empty())
		})
	}
}

func TestResolveTitleTruncation(t *testing.T) {
	t.Run("long titles are cut to fifty runes", func(t *testing.T) {
		long := strings.Repeat("あ", 60)
		key := Resolve(models.IdentifierSet{}, models.FieldOf(long))

		assert.Equal(t, TypeTitle, key.Type)
		assert.Equal(t, 50, len([]rune(key.Keyword)))
		assert.Equal(t, strings.Repeat("あ", 50), key.Keyword)
	})

	t.Run("short titles pass through unchanged", func(t *testing.T) {
		key := Resolve(models.IdentifierSet{}, models.FieldOf("ケトル"))
		assert.Equal(t, "ケトル", key.Keyword)
	})
}

func TestSearchKeyEmpty(t *testing.T) {
	key := Resolve(models.IdentifierSet{}, models.Field{})
	assert.True(t, key.Empty())
	assert.Equal(t, TypeTitle, key.Type)
}
