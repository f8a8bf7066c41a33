package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dkress/shopfront/internal/checkout"
)

type CheckoutHandler struct {
	service *checkout.Service
	timeout time.Duration
}

func NewCheckoutHandler(service *checkout.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type CheckoutErrorResponse struct {
	Error  string                `json:"error"`
	Code   string                `json:"code"`
	Fields []checkout.FieldError `json:"fields,omitempty"`
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	conf, fieldErrs, err := h.service.PlaceOrder(ctx, form)
	switch {
	case errors.Is(err, checkout.ErrInvalidForm):
		respondJSON(w, http.StatusUnprocessableEntity, &CheckoutErrorResponse{
			Error:  "checkout form is invalid",
			Code:   "invalid_form",
			Fields: fieldErrs,
		})
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "there is nothing in the cart to check out")
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "could not price the order")
		return
	}

	respondJSON(w, http.StatusCreated, conf)
}
