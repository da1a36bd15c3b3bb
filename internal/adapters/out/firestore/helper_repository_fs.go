// internal/adapters/out/firestore/helper_repository_fs.go
package firestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

func asInt(v any) int {
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case string:
		tt := strings.TrimSpace(t)
		if tt == "" {
			return 0
		}
		var n int
		_, _ = fmt.Sscanf(tt, "%d", &n)
		return n
	default:
		var n int
		_, _ = fmt.Sscanf(strings.TrimSpace(fmt.Sprint(v)), "%d", &n)
		return n
	}
}

// asDecimal accepts the numeric shapes a web client may have stored.
// Anything unparseable is zero.
func asDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// asTime returns (time, ok). ISO-8601 strings are accepted for documents
// written by browser clients.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		tt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, false
		}
		return tt, true
	default:
		return time.Time{}, false
	}
}

func asStrings(v any) []string {
	xs, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if s := strings.TrimSpace(asString(x)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// money is the stored form of a price: a plain number, as browser clients write it.
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// newBreaker trips after half of at least five calls fail inside a 10s window.
func newBreaker(name string, log *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("[firestore] circuit breaker state changed")
		},
	})
}
