// internal/domain/cart/codec.go
package cart

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed is returned when a stored cart cannot be read back.
var ErrMalformed = errors.New("cart: malformed stored cart")

// Encode serializes lines as the JSON array kept in device storage:
// [{"id":..,"name":..,"price":..,"image":..,"quantity":..}]
func Encode(c Cart) (string, error) {
	lines := c.Lines
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", errors.Wrap(err, "cart: encode")
	}
	return string(b), nil
}

// Decode parses device storage. Empty input is an empty cart.
// Anything that is not an array of line objects is ErrMalformed.
// Invalid lines inside a well-formed array are dropped by Normalize.
func Decode(raw string) (Cart, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Cart{Lines: []Line{}}, nil
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return Cart{Lines: []Line{}}, errors.Wrapf(ErrMalformed, "%v", err)
	}
	return New(lines), nil
}
