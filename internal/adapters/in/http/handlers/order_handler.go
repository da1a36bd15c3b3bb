// internal/adapters/in/http/handlers/order_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/middleware"
	"anusswar/internal/application/cartsync"
	usecase "anusswar/internal/application/usecase"
	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
)

// OrderHandler places orders from the caller's remote cart.
type OrderHandler struct {
	uc    *usecase.CheckoutUsecase
	carts cartsync.RemoteStore
	log   *logrus.Logger
}

func NewOrderHandler(uc *usecase.CheckoutUsecase, carts cartsync.RemoteStore, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, carts: carts, log: log}
}

type placeOrderRequest struct {
	Customer       orderdom.Customer `json:"customer"`
	DeliveryMethod string            `json:"deliveryMethod"`
	PaymentMethod  string            `json:"paymentMethod"`
	TransactionID  string            `json:"transactionId"`
}

type orderResponse struct {
	ID             string            `json:"id"`
	OrderNumber    string            `json:"orderNumber"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"paymentStatus"`
	DeliveryMethod string            `json:"deliveryMethod"`
	Customer       orderdom.Customer `json:"customer"`
	Items          []cart.Line       `json:"items"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DeliveryFee    decimal.Decimal   `json:"deliveryFee"`
	Total          decimal.Decimal   `json:"total"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func toOrderResponse(o *orderdom.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PaymentStatus:  o.Payment.Status(),
		DeliveryMethod: string(o.Delivery),
		Customer:       o.Customer,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		DeliveryFee:    o.DeliveryFee,
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
	}
}

// Place handles POST /orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	who := middleware.CurrentIdentity(r.Context())
	if who == nil {
		writeError(w, r, h.log, identity.ErrNotSignedIn)
		return
	}

	var body placeOrderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	d := orderdom.Draft{
		Customer: body.Customer,
		Delivery: orderdom.DeliveryMethod(strings.TrimSpace(body.DeliveryMethod)),
		Payment: orderdom.Payment{
			Method:        orderdom.PaymentMethod(strings.TrimSpace(body.PaymentMethod)),
			TransactionID: strings.TrimSpace(body.TransactionID),
		},
	}

	o, err := h.uc.PlaceOrder(r.Context(), who, &usecase.RemoteCart{Store: h.carts, UID: who.UID}, d)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// Quote handles GET /orders/quote?deliveryMethod=home.
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	who := middleware.CurrentIdentity(r.Context())
	if who == nil {
		writeError(w, r, h.log, identity.ErrNotSignedIn)
		return
	}

	method := orderdom.DeliveryMethod(strings.TrimSpace(r.URL.Query().Get("deliveryMethod")))
	if method == "" {
		method = orderdom.DeliveryHome
	}
	if method != orderdom.DeliveryHome && method != orderdom.DeliveryPickup {
		writeError(w, r, h.log, orderdom.ErrInvalidDelivery)
		return
	}

	q, err := h.uc.Quote(r.Context(), &usecase.RemoteCart{Store: h.carts, UID: who.UID}, method)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"subtotal":    q.Subtotal,
		"deliveryFee": q.DeliveryFee,
		"total":       q.Total,
	})
}
