package usecase

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"anusswar/internal/domain/cart"
	orderdom "anusswar/internal/domain/order"
	productdom "anusswar/internal/domain/product"
	reqdom "anusswar/internal/domain/request"
)

type memProducts struct {
	mu   sync.Mutex
	byID map[string]productdom.Product
	err  error
}

func newMemProducts(ps ...productdom.Product) *memProducts {
	m := &memProducts{byID: map[string]productdom.Product{}}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) List(context.Context) ([]productdom.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]productdom.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProducts) Get(_ context.Context, id string) (*productdom.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, productdom.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) Upsert(_ context.Context, p productdom.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = p
	return nil
}

type memOrders struct {
	products *memProducts
	placed   []*orderdom.Order
	open     []orderdom.Order
	err      error
}

// Place mirrors the transactional store: stock is re-checked and decremented.
func (m *memOrders) Place(_ context.Context, o *orderdom.Order) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.products.mu.Lock()
	defer m.products.mu.Unlock()
	for _, l := range o.Items {
		p, ok := m.products.byID[l.ItemID]
		if !ok {
			return "", orderdom.ErrProductUnavailable
		}
		if p.Stock < l.Quantity {
			return "", orderdom.ErrInsufficientStock
		}
	}
	for _, l := range o.Items {
		p := m.products.byID[l.ItemID]
		p.Stock -= l.Quantity
		m.products.byID[l.ItemID] = p
	}
	m.placed = append(m.placed, o)
	return "doc-1", nil
}

func (m *memOrders) ListOpen(context.Context) ([]orderdom.Order, error) {
	return m.open, m.err
}

type memCart struct {
	c        cart.Cart
	cleared  bool
	clearErr error
}

func (m *memCart) Load(context.Context) (cart.Cart, error) { return m.c.Clone(), nil }

func (m *memCart) Clear(context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	m.c = cart.Cart{}
	return nil
}

type memRequests struct {
	lessons   []*reqdom.Lesson
	workshops []*reqdom.Workshop
	openL     []reqdom.Lesson
	openW     []reqdom.Workshop
	err       error
}

func (m *memRequests) CreateLesson(_ context.Context, l *reqdom.Lesson) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lessons = append(m.lessons, l)
	return "lesson-1", nil
}

func (m *memRequests) CreateWorkshop(_ context.Context, w *reqdom.Workshop) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.workshops = append(m.workshops, w)
	return "workshop-1", nil
}

func (m *memRequests) ListOpenLessons(context.Context) ([]reqdom.Lesson, error) {
	return m.openL, m.err
}

func (m *memRequests) ListOpenWorkshops(context.Context) ([]reqdom.Workshop, error) {
	return m.openW, m.err
}

type memImages struct {
	paths []string
	err   error
}

func (m *memImages) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.paths = append(m.paths, objectPath)
	return "https://storage.googleapis.com/bucket/" + objectPath, nil
}

type recordingNotifier struct {
	orders    int
	lessons   int
	workshops int
	fail      bool
}

func (n *recordingNotifier) OrderPlaced(context.Context, *orderdom.Order) error {
	n.orders++
	return n.failure()
}

func (n *recordingNotifier) LessonRequested(context.Context, *reqdom.Lesson) error {
	n.lessons++
	return n.failure()
}

func (n *recordingNotifier) WorkshopRequested(context.Context, *reqdom.Workshop) error {
	n.workshops++
	return n.failure()
}

func (n *recordingNotifier) failure() error {
	if n.fail {
		return errors.New("sendgrid: 503")
	}
	return nil
}
