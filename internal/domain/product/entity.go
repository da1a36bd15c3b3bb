// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"anusswar/internal/domain/cart"
)

const (
	DefaultName      = "Unnamed Product"
	DefaultCategory  = "Uncategorized"
	PlaceholderImage = "assets/placeholder.jpg"
)

var (
	ErrNotFound     = errors.New("product: not found")
	ErrInvalidID    = errors.New("product: invalid id")
	ErrInvalidPrice = errors.New("product: invalid price")
	ErrInvalidStock = errors.New("product: invalid stock")
)

// ========================================
// Entity
// ========================================

// Product is a catalog entry stored at products/{id}.
type Product struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name"`
	Price            decimal.Decimal `json:"price" yaml:"price"`
	Category         string          `json:"category" yaml:"category"`
	Description      string          `json:"description,omitempty" yaml:"description"`
	Image            string          `json:"image" yaml:"image"`
	AdditionalImages []string        `json:"additionalImages,omitempty" yaml:"additionalImages"`
	Stock            int             `json:"stock" yaml:"stock"`
	Features         []string        `json:"features,omitempty" yaml:"features"`
	SKU              string          `json:"sku" yaml:"sku"`
	VideoURL         string          `json:"videoUrl,omitempty" yaml:"videoUrl"`

	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

// ApplyDefaults fills the display fields a stored document may lack.
func (p *Product) ApplyDefaults() {
	p.ID = strings.TrimSpace(p.ID)
	if strings.TrimSpace(p.Name) == "" {
		p.Name = DefaultName
	}
	if strings.TrimSpace(p.Category) == "" {
		p.Category = DefaultCategory
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = PlaceholderImage
		for _, img := range p.AdditionalImages {
			if s := strings.TrimSpace(img); s != "" {
				p.Image = s
				break
			}
		}
	}
	if strings.TrimSpace(p.SKU) == "" {
		p.SKU = p.ID
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// Available reports whether qty units can be sold.
func (p Product) Available(qty int) bool {
	return qty >= 1 && p.Stock >= qty
}

// ToCartProduct is the snapshot copied into a cart line.
func (p Product) ToCartProduct() cart.Product {
	return cart.Product{
		ItemID:    p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.Image,
	}
}

// Images returns the primary image followed by the additional ones, without duplicates.
func (p Product) Images() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, s := range append([]string{p.Image}, p.AdditionalImages...) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// FilterByCategory keeps products whose category matches, case-insensitively.
// An empty or "all" category keeps everything.
func FilterByCategory(ps []Product, category string) []Product {
	c := strings.TrimSpace(category)
	if c == "" || strings.EqualFold(c, "all") {
		return ps
	}
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if strings.EqualFold(p.Category, c) {
			out = append(out, p)
		}
	}
	return out
}
