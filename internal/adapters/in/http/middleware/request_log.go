// internal/adapters/in/http/middleware/request_log.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKeyLog struct{}

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

// RequestLog tags each request with a uuid and logs its outcome.
func RequestLog(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			start := time.Now()
			rr := &responseRecorder{w: w}

			entry := log.WithFields(logrus.Fields{
				"http.req.path":   r.URL.Path,
				"http.req.method": r.Method,
				"http.req.id":     requestID,
			})
			w.Header().Set("X-Request-Id", requestID)

			defer func() {
				entry.WithFields(logrus.Fields{
					"http.resp.took_ms": time.Since(start).Milliseconds(),
					"http.resp.status":  rr.status,
					"http.resp.bytes":   rr.b,
				}).Info("[http] request complete")
			}()

			ctx := context.WithValue(r.Context(), ctxKeyLog{}, entry)
			next.ServeHTTP(rr, r.WithContext(ctx))
		})
	}
}

// Logger returns the request-scoped entry, or a bare one when RequestLog is not installed.
func Logger(ctx context.Context, fallback *logrus.Logger) *logrus.Entry {
	if e, ok := ctx.Value(ctxKeyLog{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(fallback)
}
