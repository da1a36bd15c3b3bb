// internal/domain/order/repository_port.go
package order

import "context"

// Repository is a persistence port for orders.
//
// Firestore:
// - users/{uid}/ordered_items/{auto}: the buyer's copy
// - orders/{auto}: the shop's copy, with orderId pointing at the buyer's doc
type Repository interface {
	// Place decrements stock for every line and stores both copies atomically.
	// A missing product is ErrProductUnavailable, short stock ErrInsufficientStock.
	// It returns the id of the buyer's copy.
	Place(ctx context.Context, o *Order) (string, error)

	// ListOpen returns every user's orders whose status IsOpen, newest first.
	ListOpen(ctx context.Context) ([]Order, error)
}
