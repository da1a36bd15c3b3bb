// internal/adapters/out/mail/storefront_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	orderdom "anusswar/internal/domain/order"
	reqdom "anusswar/internal/domain/request"
)

// StorefrontMailer implements usecase.Notifier over an EmailClient.
// Customer confirmations go to the buyer; every event is copied to the shop inbox.
type StorefrontMailer struct {
	client    EmailClient
	from      string
	shopInbox string
}

func NewStorefrontMailer(client EmailClient, from, shopInbox string) *StorefrontMailer {
	return &StorefrontMailer{
		client:    client,
		from:      strings.TrimSpace(from),
		shopInbox: strings.TrimSpace(shopInbox),
	}
}

func (m *StorefrontMailer) OrderPlaced(ctx context.Context, o *orderdom.Order) error {
	if o == nil {
		return nil
	}
	subject := fmt.Sprintf("Anusswar order %s", o.OrderNumber)
	body := orderBody(o)

	var errs []string
	to := strings.TrimSpace(o.Customer.Email)
	if to == "" {
		to = o.UserEmail
	}
	if err := m.client.Send(ctx, m.from, to, subject, body); err != nil {
		errs = append(errs, err.Error())
	}
	if m.shopInbox != "" {
		if err := m.client.Send(ctx, m.from, m.shopInbox, "[shop] "+subject, body); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("mail: order %s: %s", o.OrderNumber, strings.Join(errs, "; "))
	}
	return nil
}

func (m *StorefrontMailer) LessonRequested(ctx context.Context, l *reqdom.Lesson) error {
	if l == nil || m.shopInbox == "" {
		return nil
	}
	body := fmt.Sprintf(`New lesson request

Name:       %s
Email:      %s
Phone:      %s
Instrument: %s
Experience: %s
Lesson:     %s

%s
`, l.Name, l.Email, l.Phone, l.Instrument, l.Experience, l.LessonType, l.Message)

	return errors.Wrap(
		m.client.Send(ctx, m.from, m.shopInbox, "[shop] Lesson request from "+l.Name, body),
		"mail: lesson request",
	)
}

func (m *StorefrontMailer) WorkshopRequested(ctx context.Context, w *reqdom.Workshop) error {
	if w == nil || m.shopInbox == "" {
		return nil
	}
	body := fmt.Sprintf("New custom instrument request from %s\n\n%s\n", w.UserEmail, w.Description)
	if len(w.ReferenceImages) > 0 {
		body += "\nReference images:\n  " + strings.Join(w.ReferenceImages, "\n  ") + "\n"
	}

	return errors.Wrap(
		m.client.Send(ctx, m.from, m.shopInbox, "[shop] Custom instrument request", body),
		"mail: workshop request",
	)
}

// ----------------------------
// Helpers
// ----------------------------

func orderBody(o *orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s.\n\n", strings.TrimSpace(o.Customer.FirstName))
	fmt.Fprintf(&b, "Order number: %s\n\n", o.OrderNumber)
	for _, l := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  %s\n", l.Quantity, l.Name, l.Total().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery: %s (%s)\n", o.DeliveryFee.StringFixed(2), o.Delivery)
	fmt.Fprintf(&b, "Total:    %s\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment:  %s (%s)\n", o.Payment.Method, o.Payment.Status())
	if o.Delivery == orderdom.DeliveryHome {
		c := o.Customer
		fmt.Fprintf(&b, "\nShip to: %s %s, %s, %s, %s\n", c.FirstName, c.LastName, c.Address, c.City, c.Zone)
	}
	return b.String()
}
