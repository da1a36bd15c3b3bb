// internal/application/usecase/dashboard_usecase.go
package usecase

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
	reqdom "anusswar/internal/domain/request"
)

var ErrDashboardForbidden = errors.New("dashboard_usecase: admin only")

// Dashboard lists what the shop still has to act on.
type Dashboard struct {
	Orders    []orderdom.Order
	Workshops []reqdom.Workshop
	Lessons   []reqdom.Lesson
}

type DashboardUsecase struct {
	orders   orderdom.Repository
	requests reqdom.Repository
}

func NewDashboardUsecase(orders orderdom.Repository, requests reqdom.Repository) *DashboardUsecase {
	return &DashboardUsecase{orders: orders, requests: requests}
}

// Load reads the three lists in parallel. who must carry the admin claim.
func (uc *DashboardUsecase) Load(ctx context.Context, who *identity.Identity) (*Dashboard, error) {
	if who == nil || !who.Admin {
		return nil, ErrDashboardForbidden
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		os, err := uc.orders.ListOpen(gctx)
		if err != nil {
			return errors.Wrap(err, "dashboard_usecase: orders")
		}
		d.Orders = os
		return nil
	})
	g.Go(func() error {
		ws, err := uc.requests.ListOpenWorkshops(gctx)
		if err != nil {
			return errors.Wrap(err, "dashboard_usecase: workshop requests")
		}
		d.Workshops = ws
		return nil
	})
	g.Go(func() error {
		ls, err := uc.requests.ListOpenLessons(gctx)
		if err != nil {
			return errors.Wrap(err, "dashboard_usecase: lesson requests")
		}
		d.Lessons = ls
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
