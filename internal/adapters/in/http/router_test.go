package httpin

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anusswar/internal/application/cartsync"
	usecase "anusswar/internal/application/usecase"
	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
	productdom "anusswar/internal/domain/product"
	reqdom "anusswar/internal/domain/request"
	"anusswar/internal/pkg/clock"
)

// ----------------------------
// Fakes
// ----------------------------

type memProducts map[string]productdom.Product

func (m memProducts) List(context.Context) ([]productdom.Product, error) {
	out := []productdom.Product{}
	for _, p := range m {
		out = append(out, p)
	}
	return out, nil
}

func (m memProducts) Get(_ context.Context, id string) (*productdom.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, productdom.ErrNotFound
	}
	return &p, nil
}

func (m memProducts) Upsert(_ context.Context, p productdom.Product) error {
	m[p.ID] = p
	return nil
}

type memOrders struct {
	placed []*orderdom.Order
	open   []orderdom.Order
}

func (m *memOrders) Place(_ context.Context, o *orderdom.Order) (string, error) {
	m.placed = append(m.placed, o)
	return "ord-1", nil
}

func (m *memOrders) ListOpen(context.Context) ([]orderdom.Order, error) { return m.open, nil }

type memRequests struct {
	lessons   []*reqdom.Lesson
	workshops []*reqdom.Workshop
}

func (m *memRequests) CreateLesson(_ context.Context, l *reqdom.Lesson) (string, error) {
	m.lessons = append(m.lessons, l)
	return "les-1", nil
}

func (m *memRequests) CreateWorkshop(_ context.Context, w *reqdom.Workshop) (string, error) {
	m.workshops = append(m.workshops, w)
	return "ws-1", nil
}

func (m *memRequests) ListOpenLessons(context.Context) ([]reqdom.Lesson, error) { return nil, nil }

func (m *memRequests) ListOpenWorkshops(context.Context) ([]reqdom.Workshop, error) { return nil, nil }

type memCarts struct {
	mu      sync.Mutex
	lines   map[string][]cart.Line
	deleted []string
}

func (m *memCarts) FetchLines(_ context.Context, uid string) ([]cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cart.Line(nil), m.lines[uid]...), nil
}

func (m *memCarts) WriteLines(_ context.Context, uid string, _ []cart.Line, deletes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, deletes...)
	m.lines[uid] = nil
	return nil
}

func (m *memCarts) WatchLines(context.Context, string, func([]cart.Line), func(error)) (cartsync.Subscription, error) {
	return nil, errors.New("not supported")
}

type tokens map[string]*identity.Identity

func (t tokens) Verify(_ context.Context, tok string) (*identity.Identity, error) {
	if who, ok := t[tok]; ok {
		return who, nil
	}
	return nil, identity.ErrNotSignedIn
}

// ----------------------------
// Harness
// ----------------------------

type fixture struct {
	handler  http.Handler
	orders   *memOrders
	requests *memRequests
	carts    *memCarts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	clk := clock.NewMock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))

	products := memProducts{
		"1": {ID: "1", Name: "Sitar", Price: decimal.NewFromInt(1200), Stock: 3},
		"2": {ID: "2", Name: "Bansuri", Price: decimal.NewFromInt(450), Stock: 0},
	}
	f := &fixture{
		orders:   &memOrders{},
		requests: &memRequests{},
		carts:    &memCarts{lines: map[string][]cart.Line{}},
	}

	f.handler = NewRouter(RouterDeps{
		CatalogUC:   usecase.NewCatalogUsecase(products, clk, logger),
		CheckoutUC:  usecase.NewCheckoutUsecase(products, f.orders, nil, clk, logger),
		RequestUC:   usecase.NewRequestUsecase(f.requests, nil, nil, clk, logger),
		DashboardUC: usecase.NewDashboardUsecase(f.orders, f.requests),
		CartStore:   f.carts,
		Verifier: tokens{
			"user":  {UID: "u1", Email: "u1@example.com"},
			"admin": {UID: "a1", Admin: true},
		},
		AllowedOrigin: "https://anusswar.com",
		Log:           logger,
	})
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func validOrder() map[string]any {
	return map[string]any{
		"customer": map[string]string{
			"firstName": "Asha", "lastName": "Rao", "email": "asha@example.com",
			"mobile": "01700000000", "address": "12 Lake Rd", "city": "Dhaka", "zone": "inside",
		},
		"deliveryMethod": "home",
		"paymentMethod":  "cod",
	}
}

// ----------------------------
// Tests
// ----------------------------

func TestProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Products []productdom.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Products, 2)
	assert.Equal(t, "Bansuri", list.Products[0].Name)

	rec = f.do(http.MethodGet, "/products/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/orders", "", validOrder())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/orders", "user", validOrder())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	f.carts.lines["u1"] = []cart.Line{{ItemID: "1", Name: "Sitar", UnitPrice: decimal.NewFromInt(1200), Quantity: 2}}
	rec = f.do(http.MethodPost, "/orders", "user", validOrder())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		ID          string          `json:"id"`
		Total       decimal.Decimal `json:"total"`
		DeliveryFee decimal.Decimal `json:"deliveryFee"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ord-1", got.ID)
	assert.True(t, got.DeliveryFee.Equal(decimal.NewFromInt(200)))
	assert.True(t, got.Total.Equal(decimal.NewFromInt(2600)))
	assert.Equal(t, []string{"1"}, f.carts.deleted, "remote cart cleared")
}

func TestPlaceOrder_OutOfStockIsConflict(t *testing.T) {
	f := newFixture(t)
	f.carts.lines["u1"] = []cart.Line{{ItemID: "2", Name: "Bansuri", UnitPrice: decimal.NewFromInt(450), Quantity: 1}}

	rec := f.do(http.MethodPost, "/orders", "user", validOrder())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.orders.placed)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	f.carts.lines["u1"] = []cart.Line{{ItemID: "1", UnitPrice: decimal.NewFromInt(1200), Quantity: 3}}

	rec := f.do(http.MethodGet, "/orders/quote?deliveryMethod=home", "user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var q map[string]decimal.Decimal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.True(t, q["deliveryFee"].IsZero(), "free over threshold")

	rec = f.do(http.MethodGet, "/orders/quote?deliveryMethod=drone", "user", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/lesson-requests", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "phone": "123",
		"instrument": "tabla", "experience": "beginner", "lessonType": "online",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, f.requests.lessons, 1)
	assert.Empty(t, f.requests.lessons[0].UserID)

	rec = f.do(http.MethodPost, "/lesson-requests", "", map[string]string{"name": "Ravi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/workshop-requests", "", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/workshop-requests", "user", map[string]string{"description": "Seven-string sarod"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", f.requests.workshops[0].UserID)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("description", "with pictures"))
	part, err := mw.CreateFormFile("images", "front.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/workshop-requests", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer user")
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusNotImplemented, out.Code, "no image store configured")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.orders.open = []orderdom.Order{{ID: "o1", OrderNumber: "ANS-1", Status: orderdom.StatusPending}}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/dashboard", "user", nil).Code)

	rec := f.do(http.MethodGet, "/dashboard", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"orderNumber":"ANS-1"`))
}

func TestHealthzAndCORS(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://anusswar.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(http.MethodOptions, "/orders", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
