package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	kafkax "github.com/andresfq/go-checkout/internal/kafka"
	"github.com/andresfq/go-checkout/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type OrdersHandler struct {
	Intake     *checkout.Intake
	Payments   *checkout.Payments
	Reconciler *checkout.Reconciler
	Orders     checkout.OrderStore

	Created   *kafkax.Producer
	Submitted *kafkax.Producer
	Fulfilled *kafkax.Producer

	Redis   *redis.Client
	Service string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/transactions", h.createOrder)
	r.Post("/transactions/cart", h.createOrderFromCart)
	r.Get("/transactions/{id}", h.getOrder)
	r.Get("/transactions/reference/{reference}", h.getOrderByReference)
	r.Post("/transactions/{id}/payment", h.submitPayment)
	r.Get("/transactions/{id}/status", h.pollStatus)
}

type orderView struct {
	OrderID          string `json:"transaction_id"`
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	AmountCents      int64  `json:"amount_cents"`
	BaseFeeCents     int64  `json:"base_fee_cents"`
	DeliveryFeeCents int64  `json:"delivery_fee_cents"`
	TotalCents       int64  `json:"total_cents"`
	GatewayTxID      string `json:"wompi_transaction_id,omitempty"`
	Fulfilled        bool   `json:"fulfilled"`
}

func viewOf(o *checkout.Order) orderView {
	return orderView{
		OrderID:          o.ID,
		Reference:        o.Reference,
		Status:           o.Status.Lower(),
		AmountCents:      o.AmountCents,
		BaseFeeCents:     o.BaseFeeCents,
		DeliveryFeeCents: o.DeliveryFeeCents,
		TotalCents:       o.TotalCents(),
		GatewayTxID:      o.GatewayTxID,
		Fulfilled:        o.Fulfilled(),
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.ProductOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "message": "Invalid JSON body"})
		return
	}
	if req.ProductID == "" || req.Customer.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_fields", "message": "product_id and customer are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.Intake.FromProduct(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropCache(ctx, summary.OrderID)
	h.publishCreated(r, summary, "")
	writeJSON(w, http.StatusCreated, summary)
}

func (h *OrdersHandler) createOrderFromCart(w http.ResponseWriter, r *http.Request) {
	var req checkout.CartOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "message": "Invalid JSON body"})
		return
	}
	if req.SessionID == "" || req.Customer.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_fields", "message": "session_id and customer are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.Intake.FromCart(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropCache(ctx, summary.OrderID)
	h.publishCreated(r, summary, req.SessionID)
	writeJSON(w, http.StatusCreated, summary)
}

func (h *OrdersHandler) submitPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req checkout.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "message": "Invalid JSON body"})
		return
	}
	if req.Card.Number == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_fields", "message": "card is required"})
		return
	}

	// Gateway round-trips dominate here; give them room.
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := h.Payments.Submit(ctx, orderID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropCache(ctx, result.OrderID)
	h.publish(h.Submitted, r, checkout.EventPaymentSubmitted, result.OrderID, checkout.PaymentSubmittedPayload{
		OrderID:     result.OrderID,
		Reference:   result.Reference,
		GatewayTxID: result.GatewayTxID,
		Status:      result.Status,
		TotalCents:  result.TotalCents,
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *OrdersHandler) pollStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	view, err := h.Reconciler.Reconcile(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.dropCache(ctx, view.OrderID)
	if view.JustFulfilled {
		h.publish(h.Fulfilled, r, checkout.EventOrderFulfilled, view.OrderID, checkout.OrderFulfilledPayload{
			OrderID:   view.OrderID,
			Reference: view.Reference,
			SessionID: view.SessionID,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")

	// cache first, DB is the fallback and the truth
	key := fmt.Sprintf(redisx.KeyOrderView, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	order, err := h.Orders.ByID(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.renderOrder(ctx, w, order, key)
}

func (h *OrdersHandler) getOrderByReference(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Orders.ByReference(ctx, chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, err)
		return
	}
	var key string
	if order != nil {
		key = fmt.Sprintf(redisx.KeyOrderView, order.ID)
	}
	h.renderOrder(ctx, w, order, key)
}

func (h *OrdersHandler) renderOrder(ctx context.Context, w http.ResponseWriter, order *checkout.Order, cacheKey string) {
	if order == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   string(checkout.KindTransactionNotFound),
			"message": "Transaction not found",
		})
		return
	}
	view := viewOf(order)
	if cacheKey != "" {
		if b, err := json.Marshal(view); err == nil {
			_ = h.Redis.Set(ctx, cacheKey, b, redisx.TTLOrderView).Err()
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) dropCache(ctx context.Context, orderID string) {
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderView, orderID)).Err()
}

func (h *OrdersHandler) publishCreated(r *http.Request, s *checkout.OrderSummary, sessionID string) {
	h.publish(h.Created, r, checkout.EventOrderCreated, s.OrderID, checkout.OrderCreatedPayload{
		OrderID:     s.OrderID,
		Reference:   s.Reference,
		SessionID:   sessionID,
		Items:       s.Items,
		AmountCents: s.AmountCents,
		TotalCents:  s.TotalCents,
	})
}

func (h *OrdersHandler) publish(p *kafkax.Producer, r *http.Request, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(checkout.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
