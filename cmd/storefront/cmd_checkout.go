// cmd/storefront/cmd_checkout.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	usecase "anusswar/internal/application/usecase"
	orderdom "anusswar/internal/domain/order"
)

var (
	co        orderdom.Customer
	coDeliver string
	coPayment string
	coTxn     string
	coQuote   bool
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		src := usecase.SyncedCart{Sync: app.Cart}
		out := cmd.OutOrStdout()
		method := orderdom.DeliveryMethod(coDeliver)

		if coQuote {
			q, err := uc.Checkout.Quote(cmd.Context(), src, method)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Subtotal: %s\nDelivery: %s\nTotal: %s\n", q.Subtotal, q.DeliveryFee, q.Total)
			return nil
		}

		who := app.Auth.Current()
		if co.Email == "" && who != nil {
			co.Email = who.Email
		}
		o, err := uc.Checkout.PlaceOrder(cmd.Context(), who, src, orderdom.Draft{
			Customer: co,
			Delivery: method,
			Payment:  orderdom.Payment{Method: orderdom.PaymentMethod(coPayment), TransactionID: coTxn},
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Order %s placed (%s)\n", o.OrderNumber, o.Status)
		fmt.Fprintf(out, "Subtotal: %s\nDelivery: %s\nTotal: %s\n", o.Subtotal, o.DeliveryFee, o.Total)
		return nil
	},
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&co.FirstName, "first-name", "", "First name")
	f.StringVar(&co.LastName, "last-name", "", "Last name")
	f.StringVar(&co.Email, "email", "", "Contact email (default: account email)")
	f.StringVar(&co.Mobile, "mobile", "", "Mobile number")
	f.StringVar(&co.Address, "address", "", "Street address")
	f.StringVar(&co.City, "city", "", "City")
	f.StringVar(&co.Zone, "zone", "", "Delivery zone")
	f.StringVar(&coDeliver, "delivery", string(orderdom.DeliveryHome), "home or pickup")
	f.StringVar(&coPayment, "payment", string(orderdom.PaymentCOD), "cod or online")
	f.StringVar(&coTxn, "transaction-id", "", "Transaction id (online payment)")
	f.BoolVar(&coQuote, "quote", false, "Only price the cart")

	rootCmd.AddCommand(checkoutCmd)
}
