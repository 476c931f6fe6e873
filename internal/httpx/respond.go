package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vendoor/vendoor-backend/internal/catalog"
	"github.com/vendoor/vendoor-backend/internal/checkout"
	"github.com/vendoor/vendoor-backend/internal/coupon"
	"github.com/vendoor/vendoor-backend/internal/orders"
	"github.com/vendoor/vendoor-backend/internal/payment"
	"github.com/vendoor/vendoor-backend/internal/stores"
)

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errBody{Error: msg, Code: code})
}

// respondError maps domain errors onto the error taxonomy. Unknown errors are
// logged with context and never leak internals to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var oos *orders.OutOfStockError

	switch {
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrAddressNotFound),
		errors.Is(err, stores.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		writeErr(w, http.StatusNotFound, "NOT_FOUND", err.Error())

	case errors.Is(err, coupon.ErrExpired):
		writeErr(w, http.StatusConflict, "COUPON_EXPIRED", err.Error())
	case errors.Is(err, coupon.ErrNotEligible):
		writeErr(w, http.StatusConflict, "NOT_ELIGIBLE", err.Error())
	case errors.As(err, &oos):
		writeErr(w, http.StatusConflict, "OUT_OF_STOCK", err.Error())
	case errors.Is(err, checkout.ErrNotResumable):
		writeErr(w, http.StatusConflict, "CONFLICT", err.Error())

	case errors.Is(err, coupon.ErrInvalid),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInactiveVendor),
		errors.Is(err, checkout.ErrBadPaymentMethod):
		writeErr(w, http.StatusBadRequest, "VALIDATION", err.Error())

	case errors.Is(err, payment.ErrProviderUnavailable):
		writeErr(w, http.StatusBadGateway, "PAYMENT_UNAVAILABLE", "payment provider unavailable")

	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		writeErr(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
