// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"anusswar/internal/application/cartsync"
	"anusswar/internal/domain/cart"
	appcfg "anusswar/internal/infra/config"
	"anusswar/internal/infra/logging"
	"anusswar/internal/platform/di/shared"
	"anusswar/internal/platform/di/storefront"
)

var (
	configPath string
	verbose    bool

	// app is built by rootCmd's PersistentPreRunE and closed after the command.
	app *storefront.Container

	// onRender is set by `cart watch`; every cart state change is forwarded to it.
	onRender atomic.Pointer[func(cart.Cart)]
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Anusswar storefront client",
	Long:          "Browse instruments, keep a cart that follows you across sign-ins, and place orders.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv(appcfg.FileEnv, configPath); err != nil {
				return err
			}
		}
		cfg, err := appcfg.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		} else if level == "info" {
			// Keep command output readable; sync details go to --verbose.
			level = "warn"
		}
		log := logging.New(level, cfg.LogFormat, os.Stderr)

		app, err = storefront.NewContainer(cmd.Context(), cfg, log, cartsync.WithObserver(render))
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (or set "+appcfg.FileEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if app != nil {
			_ = app.Close()
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// ----------------------------
// Helpers
// ----------------------------

func render(c cart.Cart) {
	if fn := onRender.Load(); fn != nil {
		(*fn)(c)
	}
}

// online returns the backend usecases or storefront.ErrOffline.
func online() (*shared.Usecases, error) {
	if app == nil || !app.Online() {
		return nil, storefront.ErrOffline
	}
	return app.Usecases, nil
}
