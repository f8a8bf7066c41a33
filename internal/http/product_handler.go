package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dkress/shopfront/internal/catalog/domain"
	"github.com/dkress/shopfront/internal/projection"
)

type ProductHandler struct {
	source  domain.Source
	timeout time.Duration
}

func NewProductHandler(source domain.Source, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		source:  source,
		timeout: timeout,
	}
}

type ProductResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	Gender   string `json:"gender"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// List serves the catalog, narrowed by optional gender/min_price/max_price/q
// query parameters. Filters apply in snapshot order.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	// Reject bad query params before paying for the upstream fetch.
	filter, ok := parseFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_filter", "price filters must be decimal numbers")
		return
	}

	products, err := h.source.FetchAll(ctx)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not load the product catalog")
		return
	}
	products = filter.Apply(products)

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: out})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	product, err := h.source.FetchOne(ctx, id)
	if errors.Is(err, domain.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not load the product")
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(product))
}

func parseFilter(r *http.Request) (domain.Filter, bool) {
	q := r.URL.Query()
	filter := domain.Filter{
		Gender: domain.Gender(q.Get("gender")),
		Query:  q.Get("q"),
	}

	if raw := q.Get("min_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Filter{}, false
		}
		filter.MinPrice = d
	}
	if raw := q.Get("max_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Filter{}, false
		}
		filter.MaxPrice = d
	}
	return filter, true
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Title:    p.Title,
		Price:    projection.FormatCurrency(p.Price),
		ImageURL: p.ImageURL,
		Gender:   string(p.Gender),
	}
}
