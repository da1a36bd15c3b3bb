// internal/domain/product/repository_port.go
package product

import "context"

// Repository is a persistence port for the catalog.
//
// Firestore:
// - collection: products
// - docId: product id
type Repository interface {
	List(ctx context.Context) ([]Product, error)

	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, id string) (*Product, error)

	Upsert(ctx context.Context, p Product) error
}
