// cmd/storefront/cmd_cart.go
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"anusswar/internal/application/cartsync"
	"anusswar/internal/domain/cart"
	productdom "anusswar/internal/domain/product"
)

var cartQty int

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change the cart",
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCart(cmd.OutOrStdout(), app.Cart.Cart())
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add ID",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		p, err := uc.Catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := addToCart(cmd.Context(), app.Cart, p, cartQty); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (cart: %d)\n", p.Name, app.Cart.Count())
		return nil
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set ID QUANTITY",
	Short: "Replace a line's quantity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := cart.ParseQuantity(args[1])
		if err != nil {
			return err
		}
		return cartResult(cmd, app.Cart.SetQuantity(cmd.Context(), args[0], qty))
	},
}

var cartIncCmd = &cobra.Command{
	Use:   "inc ID",
	Short: "Increase a line's quantity by one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cartResult(cmd, app.Cart.Increment(cmd.Context(), args[0]))
	},
}

var cartDecCmd = &cobra.Command{
	Use:   "dec ID",
	Short: "Decrease a line's quantity by one; a line at one is removed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cartResult(cmd, app.Cart.Decrement(cmd.Context(), args[0]))
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cartResult(cmd, app.Cart.RemoveItem(cmd.Context(), args[0]))
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cartResult(cmd, app.Cart.Clear(cmd.Context()))
	},
}

var cartWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the cart on every change until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if _, ok := app.Cart.Attached(); !ok {
			fmt.Fprintln(out, "Not synced; only changes made by this process will show")
		}

		// The observer runs with the synchronizer locked; hand off to this goroutine.
		changes := make(chan cart.Cart, 16)
		fn := func(c cart.Cart) {
			select {
			case changes <- c:
			default:
			}
		}
		onRender.Store(&fn)
		defer onRender.Store(nil)

		if err := printCart(out, app.Cart.Cart()); err != nil {
			return err
		}
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case c := <-changes:
				fmt.Fprintln(out, "---")
				if err := printCart(out, c); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	cartAddCmd.Flags().IntVar(&cartQty, "qty", 1, "Quantity to add")
	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartSetCmd, cartIncCmd, cartDecCmd, cartRemoveCmd, cartClearCmd, cartWatchCmd)
	rootCmd.AddCommand(cartCmd)
}

// ----------------------------
// Helpers
// ----------------------------

// addToCart copies the catalog product's cart snapshot into the cart.
func addToCart(ctx context.Context, sync *cartsync.Synchronizer, p *productdom.Product, qty int) error {
	return sync.AddItem(ctx, p.ToCartProduct(), qty)
}

// cartResult reports a missing item without failing the command.
func cartResult(cmd *cobra.Command, err error) error {
	out := cmd.OutOrStdout()
	switch {
	case err == nil:
		fmt.Fprintf(out, "Cart: %d item(s)\n", app.Cart.Count())
		return nil
	case errors.Is(err, cart.ErrItemNotFound):
		fmt.Fprintln(out, "That item is not in your cart")
		return nil
	default:
		return err
	}
}

func printCart(w io.Writer, c cart.Cart) error {
	if c.IsEmpty() {
		_, err := fmt.Fprintln(w, "Cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tTOTAL")
	for _, l := range c.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ItemID, l.Name, l.UnitPrice.String(), l.Quantity, l.Total().String())
	}
	fmt.Fprintf(tw, "\t\t\t%d\t%s\n", c.Count(), c.Subtotal().String())
	return tw.Flush()
}
