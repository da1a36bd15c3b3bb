// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/middleware"
	usecase "anusswar/internal/application/usecase"
	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
	productdom "anusswar/internal/domain/product"
	reqdom "anusswar/internal/domain/request"
)

// maxBody bounds JSON bodies; multipart uploads have their own limit.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. 5xx details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	status := statusFor(err)
	entry := middleware.Logger(r.Context(), log).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("[http] request failed")
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	entry.WithField("status", status).Debug("[http] request rejected")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isAny(err, errBadRequest,
		cart.ErrInvalidQuantity, cart.ErrInvalidLine,
		orderdom.ErrEmptyCart, orderdom.ErrInvalidCustomer, orderdom.ErrInvalidDelivery,
		orderdom.ErrInvalidPayment, orderdom.ErrMissingTransactionID,
		reqdom.ErrMissingField, reqdom.ErrInvalidEmail, reqdom.ErrEmptyDesc, reqdom.ErrTooManyImages,
		productdom.ErrInvalidID, usecase.ErrCatalogInvalidArgument):
		return http.StatusBadRequest
	case isAny(err, orderdom.ErrNotSignedIn, reqdom.ErrNotSignedIn, identity.ErrNotSignedIn):
		return http.StatusUnauthorized
	case isAny(err, usecase.ErrDashboardForbidden):
		return http.StatusForbidden
	case isAny(err, productdom.ErrNotFound, cart.ErrItemNotFound):
		return http.StatusNotFound
	case isAny(err, orderdom.ErrProductUnavailable, orderdom.ErrInsufficientStock):
		return http.StatusConflict
	case isAny(err, usecase.ErrImagesUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
