package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	Carts    checkout.CartStore
	Products checkout.ProductStore

	BaseFeeCents     int64
	DeliveryFeeCents int64
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart/{sessionID}", h.getCart)
	r.Post("/cart/{sessionID}/items", h.addItem)
	r.Put("/cart/{sessionID}/items/{productID}", h.updateItem)
	r.Delete("/cart/{sessionID}/items/{productID}", h.removeItem)
	r.Delete("/cart/{sessionID}", h.clearCart)
}

type cartItemView struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	PriceCents    int64  `json:"price_cents"`
	Quantity      int    `json:"quantity"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Stock         int    `json:"stock"`
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessionID := chi.URLParam(r, "sessionID")
	lines, err := h.Carts.Lines(ctx, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]cartItemView, 0, len(lines))
	var subtotal int64
	var count int
	for _, l := range lines {
		v := cartItemView{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity}
		product, err := h.Products.ByID(ctx, l.ProductID)
		if err != nil {
			writeError(w, err)
			return
		}
		if product != nil {
			v.ProductName = product.Name
			v.PriceCents = product.PriceCents
			v.SubtotalCents = product.PriceCents * int64(l.Quantity)
			v.Stock = product.Stock
		}
		subtotal += v.SubtotalCents
		count += l.Quantity
		items = append(items, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":         sessionID,
		"items":              items,
		"items_count":        count,
		"subtotal_cents":     subtotal,
		"base_fee_cents":     h.BaseFeeCents,
		"delivery_fee_cents": h.DeliveryFeeCents,
		"total_cents":        subtotal + h.BaseFeeCents + h.DeliveryFeeCents,
	})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "message": "Invalid JSON"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessionID := chi.URLParam(r, "sessionID")
	product, err := h.Products.ByID(ctx, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if product == nil {
		writeError(w, checkout.Fail(checkout.KindProductNotFound, "Product not found"))
		return
	}
	if product.Stock < req.Quantity {
		writeError(w, checkout.Fail(checkout.KindInsufficientStock, "Insufficient stock"))
		return
	}

	// adding on top of what is already in the cart must not exceed stock
	lines, err := h.Carts.Lines(ctx, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, l := range lines {
		if l.ProductID == req.ProductID && l.Quantity+req.Quantity > product.Stock {
			writeError(w, checkout.Fail(checkout.KindInsufficientStock, "Cannot add more items than available stock"))
			return
		}
	}

	line, err := h.Carts.AddLine(ctx, sessionID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         line.ID,
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
		"message":    "Item added to cart",
	})
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "message": "Invalid JSON"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessionID := chi.URLParam(r, "sessionID")
	productID := chi.URLParam(r, "productID")

	product, err := h.Products.ByID(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	if product == nil {
		writeError(w, checkout.Fail(checkout.KindProductNotFound, "Product not found"))
		return
	}
	if req.Quantity > product.Stock {
		writeError(w, checkout.Fail(checkout.KindInsufficientStock, "Insufficient stock"))
		return
	}

	line, err := h.Carts.UpdateQuantity(ctx, sessionID, productID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
		return
	}
	if line == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item_not_found", "message": "Item not in cart"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         line.ID,
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
	})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.RemoveLine(ctx, chi.URLParam(r, "sessionID"), chi.URLParam(r, "productID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
