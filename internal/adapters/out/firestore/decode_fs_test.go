package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "anusswar/internal/domain/order"
	productdom "anusswar/internal/domain/product"
)

func TestProductFromData_Defaults(t *testing.T) {
	p := productFromData("12", map[string]any{
		"price":            "8999",
		"additionalImages": []any{"", "assets/side.jpg"},
	})

	assert.Equal(t, productdom.DefaultName, p.Name)
	assert.Equal(t, productdom.DefaultCategory, p.Category)
	assert.Equal(t, "assets/side.jpg", p.Image)
	assert.Equal(t, "12", p.SKU)
	assert.Equal(t, 0, p.Stock)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(8999)))
}

func TestOrderFromData_LegacyShape(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	o := orderFromData("doc1", map[string]any{
		"id":       "ANS-1234560001",
		"customer": map[string]any{"firstName": "Mira", "email": "mira@example.com"},
		"items": []any{
			map[string]any{"id": "A", "name": "Sitar", "price": 120.5, "quantity": int64(2)},
			map[string]any{"id": "B", "quantity": int64(0)},
		},
		"total":     int64(241),
		"timestamp": created,
	})

	assert.Equal(t, "doc1", o.ID)
	assert.Equal(t, "ANS-1234560001", o.OrderNumber)
	assert.Equal(t, "mira@example.com", o.UserEmail, "falls back to the customer email")
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(241)))
	assert.Equal(t, created, o.CreatedAt)
	assert.True(t, orderdom.IsOpen(o.Status))
}

func TestOrderDoc_ShopFields(t *testing.T) {
	o := &orderdom.Order{
		OrderNumber: "ANS-0000010001",
		UserID:      "u1",
		Delivery:    orderdom.DeliveryHome,
		Payment:     orderdom.Payment{Method: orderdom.PaymentOnline, TransactionID: "TX9"},
		Subtotal:    decimal.NewFromInt(100),
		DeliveryFee: decimal.NewFromInt(200),
		Total:       decimal.NewFromInt(300),
		Status:      orderdom.StatusPending,
	}

	m := orderDoc(o)
	assert.Equal(t, "paid", m["paymentStatus"])
	assert.Equal(t, "home", m["deliveryMethod"])
	assert.Equal(t, 300.0, m["total"])
	assert.Equal(t, "ANS-0000010001", m["id"])
}

func TestWorkshopFromData_LastUpdatedDefaultsToCreated(t *testing.T) {
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	w := workshopFromData("w1", map[string]any{
		"description":     "Seven-string guitar",
		"createdAt":       created,
		"referenceImages": []any{"https://img/1.jpg"},
	})

	assert.Equal(t, created, w.LastUpdatedAt)
	assert.Equal(t, []string{"https://img/1.jpg"}, w.ReferenceImages)
	assert.Empty(t, w.Status)
}
