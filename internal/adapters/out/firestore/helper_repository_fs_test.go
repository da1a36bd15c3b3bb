package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAsDecimal(t *testing.T) {
	assert.True(t, asDecimal(int64(8999)).Equal(decimal.NewFromInt(8999)))
	assert.True(t, asDecimal(180.5).Equal(decimal.RequireFromString("180.5")))
	assert.True(t, asDecimal(" 12.25 ").Equal(decimal.RequireFromString("12.25")))
	assert.True(t, asDecimal("abc").IsZero())
	assert.True(t, asDecimal(nil).IsZero())
}

func TestAsInt(t *testing.T) {
	assert.Equal(t, 3, asInt(int64(3)))
	assert.Equal(t, 2, asInt(2.0))
	assert.Equal(t, 7, asInt(" 7 "))
	assert.Equal(t, 0, asInt(""))
	assert.Equal(t, 0, asInt(nil))
}

func TestAsTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	got, ok := asTime(now)
	assert.True(t, ok)
	assert.Equal(t, now, got)

	got, ok = asTime("2025-03-01T10:00:00Z")
	assert.True(t, ok)
	assert.True(t, got.Equal(now))

	_, ok = asTime(42)
	assert.False(t, ok)
}

func TestAsStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, asStrings([]any{"a", " ", "b"}))
	assert.Nil(t, asStrings("a"))
}

func TestLineFromData(t *testing.T) {
	l := lineFromData(" 7 ", map[string]any{
		"id":       "ignored",
		"name":     "Ukulele",
		"price":    int64(4500),
		"image":    "assets/uke.jpg",
		"quantity": int64(2),
	})

	assert.Equal(t, "7", l.ItemID)
	assert.Equal(t, "Ukulele", l.Name)
	assert.True(t, l.UnitPrice.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, 2, l.Quantity)
}

func TestLineDoc(t *testing.T) {
	m := lineDoc(lineFromData("A", map[string]any{"name": "Flute", "price": "99.50", "quantity": 3}))
	assert.Equal(t, "A", m["id"])
	assert.Equal(t, 99.5, m["price"])
	assert.Equal(t, 3, m["quantity"])
	assert.Contains(t, m, "updatedAt")
}
