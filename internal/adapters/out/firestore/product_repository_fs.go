// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "anusswar/internal/domain/product"
)

// ProductRepositoryFS implements product.Repository on products/{id}.
type ProductRepositoryFS struct {
	Client *firestore.Client
}

var _ productdom.Repository = (*ProductRepositoryFS)(nil)

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

func (r *ProductRepositoryFS) List(ctx context.Context) ([]productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	snaps, err := r.col().Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "product_repository_fs: list")
	}

	out := make([]productdom.Product, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, productFromData(s.Ref.ID, s.Data()))
	}
	return out, nil
}

func (r *ProductRepositoryFS) Get(ctx context.Context, id string) (*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}
	pid := strings.TrimSpace(id)
	if pid == "" {
		return nil, productdom.ErrInvalidID
	}

	snap, err := r.col().Doc(pid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, productdom.ErrNotFound
		}
		return nil, errors.Wrapf(err, "product_repository_fs: get id=%s", pid)
	}

	p := productFromData(snap.Ref.ID, snap.Data())
	return &p, nil
}

func (r *ProductRepositoryFS) Upsert(ctx context.Context, p productdom.Product) error {
	if r == nil || r.Client == nil {
		return errors.New("product_repository_fs: firestore client is nil")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if _, err := r.col().Doc(p.ID).Set(ctx, productDoc(p)); err != nil {
		return errors.Wrapf(err, "product_repository_fs: upsert id=%s", p.ID)
	}
	return nil
}

// ----------------------------
// Helpers
// ----------------------------

func productDoc(p productdom.Product) map[string]any {
	m := map[string]any{
		"name":             p.Name,
		"price":            money(p.Price),
		"category":         p.Category,
		"description":      p.Description,
		"image":            p.Image,
		"additionalImages": nonNil(p.AdditionalImages),
		"stock":            p.Stock,
		"features":         nonNil(p.Features),
		"sku":              p.SKU,
		"videoUrl":         p.VideoURL,
		"updatedAt":        timeOrServer(p.UpdatedAt),
	}
	if !p.CreatedAt.IsZero() {
		m["createdAt"] = p.CreatedAt
	}
	return m
}

// productFromData decodes a catalog doc; missing stock is 0 and display
// fields get their defaults.
func productFromData(docID string, m map[string]any) productdom.Product {
	p := productdom.Product{
		ID:               docID,
		Name:             asString(m["name"]),
		Price:            asDecimal(m["price"]),
		Category:         asString(m["category"]),
		Description:      asString(m["description"]),
		Image:            asString(m["image"]),
		AdditionalImages: asStrings(m["additionalImages"]),
		Stock:            asInt(m["stock"]),
		Features:         asStrings(m["features"]),
		SKU:              asString(m["sku"]),
		VideoURL:         asString(m["videoUrl"]),
	}
	if t, ok := asTime(m["createdAt"]); ok {
		p.CreatedAt = t.UTC()
	}
	if t, ok := asTime(m["updatedAt"]); ok {
		p.UpdatedAt = t.UTC()
	}
	p.ApplyDefaults()
	return p
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func timeOrServer(t time.Time) any {
	if t.IsZero() {
		return firestore.ServerTimestamp
	}
	return t
}
