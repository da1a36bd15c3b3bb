// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/middleware"
	appcfg "anusswar/internal/infra/config"
	"anusswar/internal/infra/logging"
	apiDI "anusswar/internal/platform/di/api"
	"anusswar/internal/platform/di/shared"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		logrus.WithError(err).Fatal("[boot] config load failed")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	// Listen immediately with healthz only; the full router is swapped in after DI.
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthz)
	switcher := newAtomicHandler(middleware.CORS(cfg.AllowedOrigin)(healthMux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var infraHolder atomic.Pointer[shared.Infra]
	shuttingDown := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs

		close(shuttingDown)
		log.WithField("signal", sig.String()).Info("[boot] shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("[boot] server shutdown error")
		}

		if inf := infraHolder.Swap(nil); inf != nil {
			log.Info("[boot] closing infra resources")
			if err := inf.Close(); err != nil {
				log.WithError(err).Warn("[boot] infra close error")
			}
		}
		close(stopped)
	}()

	go func() {
		log.WithField("port", cfg.Port).Info("[boot] listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("[boot] server error")
		}
	}()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		inf, err := shared.NewInfra(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Warn("[boot] shared infra init failed; serving /healthz only")
			return
		}
		if err := inf.Firestore.Ping(ctx); err != nil {
			log.WithError(err).Warn("[boot] firestore ping failed; continuing")
		}

		cont, err := apiDI.NewContainer(ctx, inf)
		if err != nil {
			_ = inf.Close()
			log.WithError(err).Warn("[boot] api di init failed; serving /healthz only")
			return
		}

		select {
		case <-shuttingDown:
			_ = inf.Close()
			return
		default:
		}
		infraHolder.Store(inf)

		switcher.Store(cont.Handler())
		log.Info("[boot] handler switched to api router")
	}()

	<-stopped
	log.Info("[boot] server stopped")
}
