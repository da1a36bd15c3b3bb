// cmd/storefront/cmd_dashboard.go
package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open orders and requests (admin accounts only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := online()
		if err != nil {
			return err
		}
		d, err := uc.Dashboard.Load(cmd.Context(), app.Auth.Current())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "ORDERS (%d)\n", len(d.Orders))
		for _, o := range d.Orders {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", o.OrderNumber, o.UserEmail, o.Total, o.Status, stamp(o.CreatedAt))
		}
		fmt.Fprintf(tw, "CUSTOM INSTRUMENTS (%d)\n", len(d.Workshops))
		for _, w := range d.Workshops {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", w.ID, w.UserEmail, w.Status, stamp(w.CreatedAt))
		}
		fmt.Fprintf(tw, "LESSONS (%d)\n", len(d.Lessons))
		for _, l := range d.Lessons {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Instrument, l.Email, stamp(l.Timestamp))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
