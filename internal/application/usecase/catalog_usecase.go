// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	productdom "anusswar/internal/domain/product"
	"anusswar/internal/pkg/clock"
)

var ErrCatalogInvalidArgument = errors.New("catalog_usecase: invalid argument")

// CatalogUsecase serves the product catalog.
type CatalogUsecase struct {
	repo  productdom.Repository
	clock clock.Clock
	log   *logrus.Logger
}

func NewCatalogUsecase(repo productdom.Repository, clk clock.Clock, logger *logrus.Logger) *CatalogUsecase {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CatalogUsecase{repo: repo, clock: clk, log: logger}
}

// List returns products in category ("" or "all" for every product), sorted by name.
func (uc *CatalogUsecase) List(ctx context.Context, category string) ([]productdom.Product, error) {
	ps, err := uc.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "catalog_usecase: list")
	}
	for i := range ps {
		ps[i].ApplyDefaults()
	}
	out := productdom.FilterByCategory(ps, category)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns productdom.ErrNotFound for unknown ids.
func (uc *CatalogUsecase) Get(ctx context.Context, id string) (*productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrCatalogInvalidArgument
	}
	p, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ApplyDefaults()
	return p, nil
}

// Upsert validates p and stores it, stamping timestamps.
func (uc *CatalogUsecase) Upsert(ctx context.Context, p productdom.Product) error {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return err
	}

	now := uc.clock.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return uc.repo.Upsert(ctx, p)
}

// Seed upserts every product and returns how many were stored.
// It stops at the first invalid product.
func (uc *CatalogUsecase) Seed(ctx context.Context, ps []productdom.Product) (int, error) {
	n := 0
	for _, p := range ps {
		if err := uc.Upsert(ctx, p); err != nil {
			return n, errors.Wrapf(err, "catalog_usecase: seed product %q", p.ID)
		}
		n++
	}
	uc.log.WithField("count", n).Info("[catalog] seeded products")
	return n, nil
}
