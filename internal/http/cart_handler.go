package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dkress/shopfront/internal/cart/store"
	"github.com/dkress/shopfront/internal/catalog/domain"
	"github.com/dkress/shopfront/internal/projection"
)

type CartHandler struct {
	store   *store.Store
	source  domain.Source
	taxFn   projection.TaxFunc
	timeout time.Duration
}

func NewCartHandler(st *store.Store, source domain.Source, taxFn projection.TaxFunc, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   st,
		source:  source,
		taxFn:   taxFn,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Lines         []CartLineDTO `json:"lines"`
	TotalQuantity int           `json:"total_quantity"`
}

type CartLineDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SummaryResponse struct {
	Items    []projection.LineItem `json:"items"`
	Subtotal string                `json:"subtotal"`
	Tax      string                `json:"tax"`
	Total    string                `json:"total"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	respondJSON(w, http.StatusOK, cartResponse(ctx, h.store))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	// Quantity below 1 is normalized by the store, never rejected.
	h.store.AddLine(ctx, req.ProductID, req.Quantity)
	respondJSON(w, http.StatusCreated, cartResponse(ctx, h.store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.store.SetQuantity(ctx, productID, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(ctx, h.store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	h.store.RemoveLine(ctx, chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, cartResponse(ctx, h.store))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	h.store.Clear(ctx)
	respondJSON(w, http.StatusOK, cartResponse(ctx, h.store))
}

// Summary joins the cart against a fresh catalog snapshot. A line whose
// product is no longer in the catalog is omitted from the response but kept
// in storage.
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	products, err := h.source.FetchAll(ctx)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not load the product catalog")
		return
	}

	items := projection.Project(h.store.Read(ctx), domain.ByID(products))
	totals := projection.Aggregate(items, h.taxFn)

	respondJSON(w, http.StatusOK, &SummaryResponse{
		Items:    items,
		Subtotal: projection.FormatCurrency(totals.Subtotal),
		Tax:      projection.FormatCurrency(totals.Tax),
		Total:    projection.FormatCurrency(totals.Total),
	})
}

func cartResponse(ctx context.Context, st *store.Store) CartResponse {
	cart := st.Read(ctx)
	lines := make([]CartLineDTO, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = CartLineDTO{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return CartResponse{Lines: lines, TotalQuantity: cart.TotalQuantity()}
}
