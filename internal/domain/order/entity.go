// internal/domain/order/entity.go
package order

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home"
	DeliveryPickup DeliveryMethod = "pickup"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
)

var (
	// HomeDeliveryFee is charged for home delivery unless the subtotal exceeds FreeDeliveryThreshold.
	HomeDeliveryFee       = decimal.NewFromInt(200)
	FreeDeliveryThreshold = decimal.NewFromInt(3000)
)

// ========================================
// Errors
// ========================================

var (
	ErrEmptyCart            = errors.New("order: cart is empty")
	ErrNotSignedIn          = errors.New("order: sign in to place an order")
	ErrInvalidCustomer      = errors.New("order: invalid customer")
	ErrInvalidDelivery      = errors.New("order: invalid delivery method")
	ErrInvalidPayment       = errors.New("order: invalid payment method")
	ErrMissingTransactionID = errors.New("order: transaction id required for online payment")
	ErrProductUnavailable   = errors.New("order: product no longer available")
	ErrInsufficientStock    = errors.New("order: insufficient stock")
)

// ========================================
// Snapshots
// ========================================

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zone      string `json:"zone"`
}

// Validate returns ErrInvalidCustomer naming the first missing field.
func (c Customer) Validate() error {
	fields := []struct{ name, v string }{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"mobile", c.Mobile},
		{"address", c.Address},
		{"city", c.City},
		{"zone", c.Zone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.v) == "" {
			return errors.Wrapf(ErrInvalidCustomer, "%s is required", f.name)
		}
	}
	if !identity.ValidEmail(c.Email) {
		return errors.Wrap(ErrInvalidCustomer, "email is invalid")
	}
	return nil
}

type Payment struct {
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transactionId,omitempty"`
}

// Status is "pending" for cash on delivery and "paid" for online payment.
func (p Payment) Status() string {
	if p.Method == PaymentOnline {
		return StatusPaid
	}
	return StatusPending
}

func (p Payment) Validate() error {
	switch p.Method {
	case PaymentCOD:
		return nil
	case PaymentOnline:
		if strings.TrimSpace(p.TransactionID) == "" {
			return ErrMissingTransactionID
		}
		return nil
	default:
		return ErrInvalidPayment
	}
}

// ========================================
// Entity
// ========================================

type Order struct {
	ID          string // buyer copy id in users/{uid}/ordered_items, set by the store
	OrderNumber string
	UserID      string
	UserEmail   string

	Customer Customer
	Delivery DeliveryMethod
	Payment  Payment

	Items       []cart.Line
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal

	Status    string
	CreatedAt time.Time
}

// Draft is what a buyer submits at checkout.
type Draft struct {
	Customer Customer
	Delivery DeliveryMethod
	Payment  Payment
}

func (d Draft) Validate() error {
	if err := d.Customer.Validate(); err != nil {
		return err
	}
	if d.Delivery != DeliveryHome && d.Delivery != DeliveryPickup {
		return ErrInvalidDelivery
	}
	return d.Payment.Validate()
}

// Fee returns the delivery fee for subtotal.
func Fee(method DeliveryMethod, subtotal decimal.Decimal) decimal.Decimal {
	if method != DeliveryHome || subtotal.GreaterThan(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return HomeDeliveryFee
}

// New prices c for who. It does not check stock.
func New(who *identity.Identity, c cart.Cart, d Draft, number string, now time.Time) (*Order, error) {
	if who == nil || strings.TrimSpace(who.UID) == "" {
		return nil, ErrNotSignedIn
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	subtotal := c.Subtotal()
	fee := Fee(d.Delivery, subtotal)

	return &Order{
		OrderNumber: number,
		UserID:      who.UID,
		UserEmail:   who.Email,
		Customer:    d.Customer,
		Delivery:    d.Delivery,
		Payment:     d.Payment,
		Items:       c.Clone().Lines,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
		Status:      StatusPending,
		CreatedAt:   now,
	}, nil
}

// NewNumber formats "ANS-" + the last six digits of now in unix millis + four random digits.
func NewNumber(now time.Time) string {
	ms := fmt.Sprintf("%06d", now.UnixMilli()%1_000_000)
	return fmt.Sprintf("ANS-%s%04d", ms, rand.IntN(10_000))
}

// IsOpen reports whether status still needs attention on the dashboard.
func IsOpen(status string) bool {
	switch strings.TrimSpace(status) {
	case "", StatusPending, StatusProcessing:
		return true
	}
	return false
}
