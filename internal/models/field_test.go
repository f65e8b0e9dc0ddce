package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	t.Run("zero value is absent", func(t *testing.T) {
		var f Field
		assert.False(t, f.OK())
		assert.Equal(t, "", f.Value())
		assert.Equal(t, NotAvailable, f.Export())
	})

	t.Run("empty string yields absent field", func(t *testing.T) {
		f := FieldOf("")
		assert.False(t, f.OK())
		assert.Equal(t, NotAvailable, f.Export())
	})

	t.Run("non-empty string is present", func(t *testing.T) {
		f := FieldOf("3,980")
		assert.True(t, f.OK())
		assert.Equal(t, "3,980", f.Value())
		assert.Equal(t, "3,980", f.Export())
	})

	t.Run("sentinel only appears at export", func(t *testing.T) {
		assert.Equal(t, "", NA().Value())
		assert.Equal(t, NotAvailable, NA().Export())
	})
}

func TestFieldJSON(t *testing.T) {
	t.Run("absent field marshals to sentinel", func(t *testing.T) {
		data, err := json.Marshal(NA())
		require.NoError(t, err)
		assert.Equal(t, `"N/A"`, string(data))
	})

	t.Run("sentinel unmarshals to absent field", func(t *testing.T) {
		var f Field
		require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &f))
		assert.False(t, f.OK())
	})

	t.Run("round trip preserves value", func(t *testing.T) {
		data, err := json.Marshal(FieldOf("明日"))
		require.NoError(t, err)

		var f Field
		require.NoError(t, json.Unmarshal(data, &f))
		assert.True(t, f.OK())
		assert.Equal(t, "明日", f.Value())
	})
}

func TestAttributeBagJSONRoundTrip(t *testing.T) {
	t.Run("all fields absent", func(t *testing.T) {
		var bag AttributeBag

		data, err := json.Marshal(bag)
		require.NoError(t, err)

		var decoded AttributeBag
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, bag, decoded)
	})

	t.Run("mixed presence", func(t *testing.T) {
		bag := AttributeBag{
			Title:        FieldOf("電気ケトル 1.2L"),
			CurrentPrice: FieldOf("3,980"),
			IsPrime:      true,
			Identifiers: IdentifierSet{
				JAN: FieldOf("4901234567894"),
			},
		}

		data, err := json.Marshal(bag)
		require.NoError(t, err)

		var decoded AttributeBag
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, bag, decoded)
	})
}

func TestQuoteFor(t *testing.T) {
	record := &ProductRecord{
		Quotes: []SourceQuote{
			{Source: "rakuten", Price: FieldOf("999")},
			{Source: "yahoo"},
		},
	}

	assert.Equal(t, "999", record.QuoteFor("rakuten").Price.Value())
	assert.False(t, record.QuoteFor("yahoo").Price.OK())

	missing := record.QuoteFor("bic")
	assert.Equal(t, "bic", missing.Source)
	assert.False(t, missing.Price.OK())
}
