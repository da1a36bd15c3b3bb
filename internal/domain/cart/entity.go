// internal/domain/cart/entity.go
package cart

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLine     = errors.New("cart: invalid line")
	ErrInvalidQuantity = errors.New("cart: invalid quantity")
	ErrItemNotFound    = errors.New("cart: item not found")
)

// Line is one product's presence in a cart.
// Name, UnitPrice and ImageRef are a snapshot of the product taken when it was added;
// they are not re-validated against the catalog.
type Line struct {
	ItemID    string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Product is the denormalized product snapshot used when adding to a cart.
type Product struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
}

// Total returns unit price * quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) valid() bool {
	return strings.TrimSpace(l.ItemID) != "" && l.Quantity >= 1 && !l.UnitPrice.IsNegative()
}

func (l Line) equal(o Line) bool {
	return l.ItemID == o.ItemID &&
		l.Name == o.Name &&
		l.UnitPrice.Equal(o.UnitPrice) &&
		l.ImageRef == o.ImageRef &&
		l.Quantity == o.Quantity
}

// Cart is a set of lines, unique by ItemID.
// Lines keep insertion order for display; equality ignores order.
type Cart struct {
	Lines []Line `json:"lines"`
}

// New builds a cart from lines, normalizing them (see Normalize).
func New(lines []Line) Cart {
	return Cart{Lines: Normalize(lines)}
}

// Add increments the quantity of an existing line or appends a new one.
// qty must be >= 1.
func (c *Cart) Add(p Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	id := strings.TrimSpace(p.ItemID)
	if id == "" || p.UnitPrice.IsNegative() {
		return ErrInvalidLine
	}

	if idx := c.index(id); idx >= 0 {
		c.Lines[idx].Quantity += qty
		return nil
	}

	c.Lines = append(c.Lines, Line{
		ItemID:    id,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		ImageRef:  p.ImageRef,
		Quantity:  qty,
	})
	return nil
}

// SetQuantity replaces a line's quantity.
// Nothing is mutated when the line is absent (ErrItemNotFound, checked first)
// or qty < 1 (ErrInvalidQuantity).
func (c *Cart) SetQuantity(itemID string, qty int) error {
	idx := c.index(strings.TrimSpace(itemID))
	if idx < 0 {
		return ErrItemNotFound
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	c.Lines[idx].Quantity = qty
	return nil
}

func (c *Cart) Increment(itemID string) error {
	idx := c.index(strings.TrimSpace(itemID))
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Lines[idx].Quantity++
	return nil
}

// Decrement lowers a line's quantity by one. A line at quantity 1 is removed,
// so a line never reaches 0.
func (c *Cart) Decrement(itemID string) error {
	idx := c.index(strings.TrimSpace(itemID))
	if idx < 0 {
		return ErrItemNotFound
	}
	if c.Lines[idx].Quantity > 1 {
		c.Lines[idx].Quantity--
		return nil
	}
	c.Lines = removeIndex(c.Lines, idx)
	return nil
}

func (c *Cart) Remove(itemID string) error {
	idx := c.index(strings.TrimSpace(itemID))
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Lines = removeIndex(c.Lines, idx)
	return nil
}

// Clear empties the cart and returns the removed lines.
func (c *Cart) Clear() []Line {
	snap := cloneLines(c.Lines)
	c.Lines = []Line{}
	return snap
}

// Find returns the line for itemID.
func (c Cart) Find(itemID string) (Line, bool) {
	idx := c.index(strings.TrimSpace(itemID))
	if idx < 0 {
		return Line{}, false
	}
	return c.Lines[idx], true
}

// Count is the badge number: the sum of quantities.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// IDs returns item ids in line order.
func (c Cart) IDs() []string {
	out := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, l.ItemID)
	}
	return out
}

func (c Cart) Clone() Cart {
	return Cart{Lines: cloneLines(c.Lines)}
}

// Equal reports whether both carts hold the same lines, ignoring order.
func (c Cart) Equal(o Cart) bool {
	if len(c.Lines) != len(o.Lines) {
		return false
	}
	for _, l := range c.Lines {
		other, ok := o.Find(l.ItemID)
		if !ok || !l.equal(other) {
			return false
		}
	}
	return true
}

// ParseQuantity parses a quantity typed by a user. Anything that is not a
// positive integer is ErrInvalidQuantity.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// Normalize drops invalid lines and combines duplicate ids by summing quantities.
// The first occurrence keeps its position and product snapshot.
func Normalize(src []Line) []Line {
	out := make([]Line, 0, len(src))
	pos := map[string]int{}

	for _, l := range src {
		l.ItemID = strings.TrimSpace(l.ItemID)
		if !l.valid() {
			continue
		}
		if i, ok := pos[l.ItemID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		pos[l.ItemID] = len(out)
		out = append(out, l)
	}
	return out
}

// ----------------------------
// Helpers
// ----------------------------

func (c Cart) index(itemID string) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func removeIndex(lines []Line, idx int) []Line {
	if idx < 0 || idx >= len(lines) {
		return lines
	}
	out := make([]Line, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	return append(out, lines[idx+1:]...)
}

func cloneLines(src []Line) []Line {
	out := make([]Line, len(src))
	copy(out, src)
	return out
}
