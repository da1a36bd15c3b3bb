// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"anusswar/internal/domain/cart"
	orderdom "anusswar/internal/domain/order"
)

// OrderRepositoryFS implements order.Repository.
//
// Collection design:
// - users/{uid}/ordered_items/{auto}: buyer copy (collection group for the dashboard)
// - orders/{auto}: shop copy, orderId = buyer copy id
type OrderRepositoryFS struct {
	Client *firestore.Client
}

var _ orderdom.Repository = (*OrderRepositoryFS)(nil)

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

// Place runs one transaction: every product is read first, then stock is
// decremented and both order copies are created.
func (r *OrderRepositoryFS) Place(ctx context.Context, o *orderdom.Order) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("order_repository_fs: firestore client is nil")
	}
	if o == nil {
		return "", errors.New("order_repository_fs: order is nil")
	}
	uid := strings.TrimSpace(o.UserID)
	if uid == "" {
		return "", orderdom.ErrNotSignedIn
	}
	if len(o.Items) == 0 {
		return "", orderdom.ErrEmptyCart
	}

	buyerRef := r.Client.Collection("users").Doc(uid).Collection("ordered_items").NewDoc()
	shopRef := r.Client.Collection("orders").NewDoc()

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stock := make([]int, len(o.Items))
		for i, l := range o.Items {
			snap, err := tx.Get(r.Client.Collection("products").Doc(l.ItemID))
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return errors.Wrapf(orderdom.ErrProductUnavailable, "%q", l.Name)
				}
				return err
			}
			left := asInt(snap.Data()["stock"]) - l.Quantity
			if left < 0 {
				return errors.Wrapf(orderdom.ErrInsufficientStock, "not enough stock for %q", l.Name)
			}
			stock[i] = left
		}

		for i, l := range o.Items {
			ref := r.Client.Collection("products").Doc(l.ItemID)
			if err := tx.Update(ref, []firestore.Update{{Path: "stock", Value: stock[i]}}); err != nil {
				return err
			}
		}

		doc := orderDoc(o)
		if err := tx.Create(buyerRef, doc); err != nil {
			return err
		}
		shop := orderDoc(o)
		shop["orderId"] = buyerRef.ID
		return tx.Create(shopRef, shop)
	})
	if err != nil {
		if errors.Is(err, orderdom.ErrProductUnavailable) || errors.Is(err, orderdom.ErrInsufficientStock) {
			return "", err
		}
		return "", errors.Wrapf(err, "order_repository_fs: place uid=%s", uid)
	}
	return buyerRef.ID, nil
}

func (r *OrderRepositoryFS) ListOpen(ctx context.Context) ([]orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}

	snaps, err := r.Client.CollectionGroup("ordered_items").Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "order_repository_fs: list ordered_items")
	}

	out := make([]orderdom.Order, 0, len(snaps))
	for _, s := range snaps {
		o := orderFromData(s.Ref.ID, s.Data())
		if o.UserID == "" && s.Ref.Parent != nil && s.Ref.Parent.Parent != nil {
			o.UserID = s.Ref.Parent.Parent.ID
		}
		if orderdom.IsOpen(o.Status) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ----------------------------
// Helpers
// ----------------------------

func orderDoc(o *orderdom.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, map[string]any{
			"id":       l.ItemID,
			"name":     l.Name,
			"price":    money(l.UnitPrice),
			"image":    l.ImageRef,
			"quantity": l.Quantity,
		})
	}
	c := o.Customer
	return map[string]any{
		"id":          o.OrderNumber,
		"orderNumber": o.OrderNumber,
		"userId":      o.UserID,
		"userEmail":   o.UserEmail,
		"customer": map[string]any{
			"firstName": c.FirstName,
			"lastName":  c.LastName,
			"email":     c.Email,
			"mobile":    c.Mobile,
			"address":   c.Address,
			"city":      c.City,
			"zone":      c.Zone,
		},
		"deliveryMethod": string(o.Delivery),
		"paymentMethod":  string(o.Payment.Method),
		"paymentStatus":  o.Payment.Status(),
		"transactionId":  o.Payment.TransactionID,
		"items":          items,
		"subtotal":       money(o.Subtotal),
		"deliveryFee":    money(o.DeliveryFee),
		"total":          money(o.Total),
		"status":         o.Status,
		"createdAt":      timeOrServer(o.CreatedAt),
	}
}

func orderFromData(docID string, m map[string]any) orderdom.Order {
	c := asMap(m["customer"])
	o := orderdom.Order{
		ID:          docID,
		OrderNumber: asString(m["orderNumber"]),
		UserID:      asString(m["userId"]),
		UserEmail:   asString(m["userEmail"]),
		Customer: orderdom.Customer{
			FirstName: asString(c["firstName"]),
			LastName:  asString(c["lastName"]),
			Email:     asString(c["email"]),
			Mobile:    asString(c["mobile"]),
			Address:   asString(c["address"]),
			City:      asString(c["city"]),
			Zone:      asString(c["zone"]),
		},
		Delivery: orderdom.DeliveryMethod(asString(m["deliveryMethod"])),
		Payment: orderdom.Payment{
			Method:        orderdom.PaymentMethod(asString(m["paymentMethod"])),
			TransactionID: asString(m["transactionId"]),
		},
		Subtotal:    asDecimal(m["subtotal"]),
		DeliveryFee: asDecimal(m["deliveryFee"]),
		Total:       asDecimal(m["total"]),
		Status:      asString(m["status"]),
	}
	if o.OrderNumber == "" {
		o.OrderNumber = asString(m["id"])
	}
	if o.UserEmail == "" {
		o.UserEmail = o.Customer.Email
	}

	if raw, ok := m["items"].([]any); ok {
		lines := make([]cart.Line, 0, len(raw))
		for _, it := range raw {
			im := asMap(it)
			lines = append(lines, lineFromData(asString(im["id"]), im))
		}
		o.Items = cart.Normalize(lines)
	}

	for _, k := range []string{"createdAt", "timestamp", "date"} {
		if t, ok := asTime(m[k]); ok {
			o.CreatedAt = t.UTC()
			break
		}
	}
	return o
}
