// internal/platform/di/shared/usecases.go
package shared

import (
	"context"
	"strings"

	"anusswar/internal/adapters/out/cache"
	fsadapter "anusswar/internal/adapters/out/firestore"
	gcsadapter "anusswar/internal/adapters/out/gcs"
	"anusswar/internal/adapters/out/mail"
	usecase "anusswar/internal/application/usecase"
	productdom "anusswar/internal/domain/product"
	reqdom "anusswar/internal/domain/request"
	"anusswar/internal/pkg/clock"
)

// Usecases is the application layer wired over Infra. Both binaries build one.
type Usecases struct {
	Products productdom.Repository
	Images   reqdom.ImageStore // nil without a bucket
	Carts    *fsadapter.CartLinesFS
	Profiles *fsadapter.UserProfileRepositoryFS

	Catalog   *usecase.CatalogUsecase
	Checkout  *usecase.CheckoutUsecase
	Requests  *usecase.RequestUsecase
	Dashboard *usecase.DashboardUsecase
}

func NewUsecases(ctx context.Context, inf *Infra) *Usecases {
	log := inf.Log
	clk := clock.Real()
	fs := inf.Firestore.Client

	var products productdom.Repository = fsadapter.NewProductRepositoryFS(fs)
	if inf.Redis != nil {
		products = cache.NewProductCachedRepo(products, inf.Redis, log)
		log.Info("[shared.usecases] product reads cached in redis")
	}
	orders := fsadapter.NewOrderRepositoryFS(fs)
	requests := fsadapter.NewRequestRepositoryFS(fs)

	// A nil interface (not a typed nil) tells RequestUsecase images are unsupported.
	var images reqdom.ImageStore
	if inf.GCS != nil {
		images = gcsadapter.NewImageStoreGCS(inf.GCS, inf.Config.ImageBucket, clk)
	}

	var notifier usecase.Notifier
	key, err := inf.Resolve(ctx, inf.Config.SendGridAPIKey, inf.Config.SendGridAPIKeySecret)
	switch {
	case err != nil:
		log.WithError(err).Warn("[shared.usecases] sendgrid key unavailable; notifications disabled")
	case strings.TrimSpace(key) == "":
		log.Warn("[shared.usecases] SENDGRID_API_KEY is empty; notifications disabled")
	default:
		notifier = mail.NewStorefrontMailer(mail.NewSendGridClient(key, log), inf.Config.MailFrom, inf.Config.ShopInbox)
	}

	return &Usecases{
		Products:  products,
		Images:    images,
		Carts:     fsadapter.NewCartLinesFS(fs, inf.Config.CartCollection, log),
		Profiles:  fsadapter.NewUserProfileRepositoryFS(fs),
		Catalog:   usecase.NewCatalogUsecase(products, clk, log),
		Checkout:  usecase.NewCheckoutUsecase(products, orders, notifier, clk, log),
		Requests:  usecase.NewRequestUsecase(requests, images, notifier, clk, log),
		Dashboard: usecase.NewDashboardUsecase(orders, requests),
	}
}
