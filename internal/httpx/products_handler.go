package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/andresfq/go-checkout/internal/checkout"
	"github.com/go-chi/chi/v5"
)

type ProductsHandler struct {
	Products checkout.ProductStore
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"price_cents": p.PriceCents,
			"stock":       p.Stock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
