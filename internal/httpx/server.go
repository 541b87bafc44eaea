package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders an error as the standard {error, message} body. Typed
// failures keep their kind and map to a protocol status; anything else is an
// opaque 500.
func writeError(w http.ResponseWriter, err error) {
	if f := checkout.AsFailure(err); f != nil {
		writeJSON(w, statusFor(f.Kind), f)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "internal_error",
		"message": err.Error(),
	})
}

func statusFor(k checkout.Kind) int {
	switch k {
	case checkout.KindProductNotFound, checkout.KindTransactionNotFound:
		return http.StatusNotFound
	case checkout.KindInsufficientStock, checkout.KindEmptyCart,
		checkout.KindInvalidStatus, checkout.KindAlreadyFulfilled,
		checkout.KindNotApproved, checkout.KindNotProcessed:
		return http.StatusUnprocessableEntity
	case checkout.KindAcceptanceTokenFailed, checkout.KindTokenizationFailed,
		checkout.KindPaymentSourceFailed, checkout.KindWompiTransactionFailed,
		checkout.KindWompiQueryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
