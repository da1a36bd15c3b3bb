// cmd/storefront/cmd_auth.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := app.Auth.SignUp(cmd.Context(), authEmail, authPassword, authName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed up as %s (%s)\n", who.Email, who.UID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in; your device cart is merged into your account cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := app.Auth.SignIn(cmd.Context(), authEmail, authPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", who.Email)
		fmt.Fprintf(cmd.OutOrStdout(), "Cart: %d item(s)\n", app.Cart.Count())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out; the cart stays on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Auth.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		who := app.Auth.Current()
		if who == nil {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}
		fmt.Fprintf(out, "%s (%s)", who.Email, who.UID)
		if who.Admin {
			fmt.Fprint(out, " [admin]")
		}
		fmt.Fprintln(out)
		if uid, ok := app.Cart.Attached(); ok {
			fmt.Fprintf(out, "Cart synced for %s\n", uid)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	signupCmd.Flags().StringVar(&authName, "name", "", "Full name")
	_ = signupCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}
