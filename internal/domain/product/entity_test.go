package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		p := Product{ID: " 7 "}
		p.ApplyDefaults()

		assert.Equal(t, "7", p.ID)
		assert.Equal(t, DefaultName, p.Name)
		assert.Equal(t, DefaultCategory, p.Category)
		assert.Equal(t, PlaceholderImage, p.Image)
		assert.Equal(t, "7", p.SKU)
	})

	t.Run("image falls back to first additional image", func(t *testing.T) {
		p := Product{ID: "1", AdditionalImages: []string{"", "assets/b.jpg", "assets/c.jpg"}}
		p.ApplyDefaults()
		assert.Equal(t, "assets/b.jpg", p.Image)
	})

	t.Run("negative stock is clamped", func(t *testing.T) {
		p := Product{ID: "1", Stock: -4}
		p.ApplyDefaults()
		assert.Equal(t, 0, p.Stock)
	})
}

func TestValidateAndAvailable(t *testing.T) {
	p := Product{ID: "1", Price: decimal.NewFromInt(8999), Stock: 2}
	assert.NoError(t, p.Validate())
	assert.True(t, p.Available(2))
	assert.False(t, p.Available(3))
	assert.False(t, p.Available(0))

	assert.ErrorIs(t, Product{}.Validate(), ErrInvalidID)
	assert.ErrorIs(t, Product{ID: "1", Price: decimal.NewFromInt(-1)}.Validate(), ErrInvalidPrice)
}

func TestToCartProduct(t *testing.T) {
	p := Product{ID: "1", Name: "Ausswar Mini Classical Guitar", Price: decimal.NewFromInt(8999), Image: "assets/ASCG.jpg"}
	cp := p.ToCartProduct()

	assert.Equal(t, "1", cp.ItemID)
	assert.Equal(t, p.Name, cp.Name)
	assert.True(t, cp.UnitPrice.Equal(p.Price))
	assert.Equal(t, p.Image, cp.ImageRef)
}

func TestImagesAndFilter(t *testing.T) {
	p := Product{Image: "a.jpg", AdditionalImages: []string{"a.jpg", "b.jpg", " "}}
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images())

	ps := []Product{{ID: "1", Category: "Guitar"}, {ID: "2", Category: "Flute"}, {ID: "3", Category: "guitar"}}
	assert.Len(t, FilterByCategory(ps, "GUITAR"), 2)
	assert.Len(t, FilterByCategory(ps, "all"), 3)
	assert.Len(t, FilterByCategory(ps, ""), 3)
}
