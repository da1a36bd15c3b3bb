// internal/application/cartsync/ports.go
package cartsync

import (
	"context"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

// LocalStore is device-scoped synchronous key/value storage.
type LocalStore interface {
	// Get returns (value, true, nil) when key is present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// RemoteStore is the per-identity cart line collection.
type RemoteStore interface {
	FetchLines(ctx context.Context, uid string) ([]cart.Line, error)

	// WriteLines upserts every line and deletes the given ids in one atomic batch.
	WriteLines(ctx context.Context, uid string, upserts []cart.Line, deletes []string) error

	// WatchLines delivers the full current line set on every change.
	// onChange and onError are called from one goroutine, never concurrently.
	WatchLines(ctx context.Context, uid string, onChange func([]cart.Line), onError func(error)) (Subscription, error)
}

// Subscription is a live remote watch.
type Subscription interface {
	// Stop blocks until the delivery goroutine has exited.
	// No callback runs after Stop returns.
	Stop()
}

// IdentitySource notifies identity changes. fn is called once immediately
// with the current identity (nil when signed out) and again on every change.
type IdentitySource interface {
	OnIdentityChange(fn func(*identity.Identity)) (unsubscribe func())
}

// Observer receives a snapshot of the cart after every state change.
// It runs with the synchronizer locked and must not call back into it.
type Observer func(cart.Cart)
