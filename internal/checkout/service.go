package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dkress/shopfront/internal/cart/store"
	"github.com/dkress/shopfront/internal/catalog/domain"
	"github.com/dkress/shopfront/internal/projection"
)

var (
	ErrEmptyCart   = errors.New("cart is empty, nothing to checkout")
	ErrInvalidForm = errors.New("checkout form is invalid")
)

// Confirmation is the receipt produced by a successful checkout. There is no
// payment capture or server-side order processing behind it.
type Confirmation struct {
	OrderID  string                `json:"order_id"`
	Items    []projection.LineItem `json:"items"`
	Totals   projection.Totals     `json:"totals"`
	Email    string                `json:"email"`
	PlacedAt time.Time             `json:"placed_at"`
}

// ConfirmationPublisher receives confirmations as they are placed. Optional;
// failures must not fail the checkout.
type ConfirmationPublisher interface {
	PublishConfirmation(ctx context.Context, conf Confirmation) error
}

type Service struct {
	store     *store.Store
	source    domain.Source
	taxFn     projection.TaxFunc
	publisher ConfirmationPublisher
	now       func() time.Time
}

func NewService(st *store.Store, source domain.Source, taxFn projection.TaxFunc) *Service {
	return &Service{
		store:  st,
		source: source,
		taxFn:  taxFn,
		now:    time.Now,
	}
}

// WithPublisher attaches a confirmation publisher.
func (s *Service) WithPublisher(p ConfirmationPublisher) *Service {
	s.publisher = p
	return s
}

// PlaceOrder validates the form, re-prices the live cart against a fresh
// catalog snapshot, and clears the cart on success. Lines whose product is
// gone from the catalog are dropped from the order rather than blocking it.
func (s *Service) PlaceOrder(ctx context.Context, form Form) (Confirmation, []FieldError, error) {
	if fieldErrs := form.Validate(s.now()); len(fieldErrs) > 0 {
		return Confirmation{}, fieldErrs, ErrInvalidForm
	}

	cart := s.store.Read(ctx)
	if cart.Empty() {
		return Confirmation{}, nil, ErrEmptyCart
	}

	products, err := s.source.FetchAll(ctx)
	if err != nil {
		return Confirmation{}, nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	items := projection.Project(cart, domain.ByID(products))
	if len(items) == 0 {
		return Confirmation{}, nil, ErrEmptyCart
	}

	conf := Confirmation{
		OrderID:  uuid.NewString(),
		Items:    items,
		Totals:   projection.Aggregate(items, s.taxFn),
		Email:    form.Email,
		PlacedAt: s.now(),
	}

	if s.publisher != nil {
		if err := s.publisher.PublishConfirmation(ctx, conf); err != nil {
			log.Printf("failed to publish confirmation %s: %v", conf.OrderID, err)
		}
	}

	s.store.Clear(ctx)
	return conf, nil, nil
}
