// internal/adapters/out/firestore/cart_lines_fs.go
package firestore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"anusswar/internal/application/cartsync"
	"anusswar/internal/domain/cart"
)

// DefaultCartCollection is the per-user subcollection holding one doc per cart line.
const DefaultCartCollection = "cart_items"

// CartLinesFS implements cartsync.RemoteStore on users/{uid}/{collection}/{itemId}.
//
// Doc id is the source of truth for the item id. Prices are stored as plain
// numbers so browser clients can read them.
type CartLinesFS struct {
	Client     *firestore.Client
	Collection string

	cb  *gobreaker.CircuitBreaker
	log *logrus.Logger
}

var _ cartsync.RemoteStore = (*CartLinesFS)(nil)

func NewCartLinesFS(client *firestore.Client, collection string, log *logrus.Logger) *CartLinesFS {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCartCollection
	}
	return &CartLinesFS{
		Client:     client,
		Collection: collection,
		cb:         newBreaker("firestore-cart", log),
		log:        log,
	}
}

func (r *CartLinesFS) col(uid string) *firestore.CollectionRef {
	return r.Client.Collection("users").Doc(uid).Collection(r.Collection)
}

func (r *CartLinesFS) FetchLines(ctx context.Context, uid string) ([]cart.Line, error) {
	if err := r.check(uid); err != nil {
		return nil, err
	}

	res, err := r.cb.Execute(func() (interface{}, error) {
		snaps, err := r.col(uid).Documents(ctx).GetAll()
		if err != nil {
			return nil, err
		}
		return linesFromSnapshots(snaps), nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cart_lines_fs: fetch uid=%s", uid)
	}
	return res.([]cart.Line), nil
}

// WriteLines applies every upsert and delete in one transaction, so either all
// of them land (and one snapshot follows) or none do.
func (r *CartLinesFS) WriteLines(ctx context.Context, uid string, upserts []cart.Line, deletes []string) error {
	if err := r.check(uid); err != nil {
		return err
	}
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	col := r.col(uid)
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			for _, l := range upserts {
				if err := tx.Set(col.Doc(l.ItemID), lineDoc(l)); err != nil {
					return err
				}
			}
			for _, id := range deletes {
				id = strings.TrimSpace(id)
				if id == "" {
					continue
				}
				if err := tx.Delete(col.Doc(id)); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return errors.Wrapf(err, "cart_lines_fs: write uid=%s upserts=%d deletes=%d", uid, len(upserts), len(deletes))
	}
	return nil
}

// WatchLines starts a snapshot listener. The listener outlives the caller's
// ctx values but not its own Stop.
func (r *CartLinesFS) WatchLines(ctx context.Context, uid string, onChange func([]cart.Line), onError func(error)) (cartsync.Subscription, error) {
	if err := r.check(uid); err != nil {
		return nil, err
	}
	if onChange == nil {
		return nil, errors.New("cart_lines_fs: onChange is nil")
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &watch{cancel: cancel, done: make(chan struct{})}
	it := r.col(uid).Snapshots(wctx)

	go func() {
		defer close(w.done)
		// Stop is not safe to call concurrently with Next, so it runs here.
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if wctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				if onError != nil {
					onError(errors.Wrapf(err, "cart_lines_fs: watch uid=%s", uid))
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				if wctx.Err() != nil {
					return
				}
				if onError != nil {
					onError(errors.Wrapf(err, "cart_lines_fs: read snapshot uid=%s", uid))
				}
				continue
			}
			onChange(linesFromSnapshots(snaps))
		}
	}()

	r.log.WithField("uid", uid).Debug("[firestore] cart watch started")
	return w, nil
}

func (r *CartLinesFS) check(uid string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_lines_fs: firestore client is nil")
	}
	if strings.TrimSpace(uid) == "" {
		return errors.New("cart_lines_fs: uid is empty")
	}
	return nil
}

type watch struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *watch) Stop() {
	w.once.Do(w.cancel)
	<-w.done
}

// ----------------------------
// Helpers
// ----------------------------

func lineDoc(l cart.Line) map[string]any {
	return map[string]any{
		"id":        l.ItemID,
		"name":      l.Name,
		"price":     money(l.UnitPrice),
		"image":     l.ImageRef,
		"quantity":  l.Quantity,
		"updatedAt": firestore.ServerTimestamp,
	}
}

func lineFromData(docID string, m map[string]any) cart.Line {
	return cart.Line{
		ItemID:    strings.TrimSpace(docID),
		Name:      asString(m["name"]),
		UnitPrice: asDecimal(m["price"]),
		ImageRef:  asString(m["image"]),
		Quantity:  asInt(m["quantity"]),
	}
}

// linesFromSnapshots decodes docs in id order and drops lines that fail
// cart.Normalize (quantity < 1, negative price).
func linesFromSnapshots(snaps []*firestore.DocumentSnapshot) []cart.Line {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Ref.ID < snaps[j].Ref.ID })
	raw := make([]cart.Line, 0, len(snaps))
	for _, s := range snaps {
		if s == nil || !s.Exists() {
			continue
		}
		raw = append(raw, lineFromData(s.Ref.ID, s.Data()))
	}
	return cart.Normalize(raw)
}
