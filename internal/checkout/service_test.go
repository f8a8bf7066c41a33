package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkress/shopfront/internal/cart/storage"
	"github.com/dkress/shopfront/internal/cart/store"
	"github.com/dkress/shopfront/internal/catalog/domain"
	"github.com/dkress/shopfront/internal/projection"
)

type mockSource struct {
	products []domain.Product
	err      error
}

func (m *mockSource) FetchAll(context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockSource) FetchOne(_ context.Context, id string) (domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

type mockPublisher struct {
	published []Confirmation
	err       error
}

func (m *mockPublisher) PublishConfirmation(_ context.Context, conf Confirmation) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, conf)
	return nil
}

func newTestService(source domain.Source) (*Service, *store.Store) {
	st := store.New(storage.NewMemoryStorage())
	svc := NewService(st, source, projection.ZeroTax)
	svc.now = func() time.Time { return testNow }
	return svc, st
}

func TestPlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{products: []domain.Product{
		{ID: "p1", Title: "Linen Shirt", Price: decimal.RequireFromString("39.90")},
	}}
	svc, st := newTestService(source)
	st.AddLine(ctx, "p1", 2)

	conf, fieldErrs, err := svc.PlaceOrder(ctx, validForm())
	require.NoError(t, err)
	assert.Empty(t, fieldErrs)

	assert.NotEmpty(t, conf.OrderID)
	require.Len(t, conf.Items, 1)
	assert.Equal(t, "79.80", projection.FormatCurrency(conf.Totals.Total))
	assert.Equal(t, "ada@example.com", conf.Email)
	assert.Equal(t, testNow, conf.PlacedAt)

	// A successful checkout empties the cart.
	assert.True(t, st.Read(ctx).Empty())
}

func TestPlaceOrder_InvalidForm(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(&mockSource{})
	st.AddLine(ctx, "p1", 1)

	form := validForm()
	form.Email = "nope"
	_, fieldErrs, err := svc.PlaceOrder(ctx, form)
	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.NotEmpty(t, fieldErrs)

	// The cart is untouched on a failed checkout.
	assert.False(t, st.Read(ctx).Empty())
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _ := newTestService(&mockSource{})
	_, _, err := svc.PlaceOrder(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_AllLinesRetired(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(&mockSource{})
	st.AddLine(ctx, "gone", 2)

	// Every cart line was dropped from the projection: nothing to order.
	_, _, err := svc.PlaceOrder(ctx, validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_CatalogDown(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(&mockSource{err: errors.New("connection refused")})
	st.AddLine(ctx, "p1", 1)

	_, _, err := svc.PlaceOrder(ctx, validForm())
	require.Error(t, err)
	assert.False(t, st.Read(ctx).Empty())
}

func TestPlaceOrder_PublishesConfirmation(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{products: []domain.Product{
		{ID: "p1", Title: "Tote", Price: decimal.RequireFromString("19.50")},
	}}
	svc, st := newTestService(source)
	pub := &mockPublisher{}
	svc.WithPublisher(pub)
	st.AddLine(ctx, "p1", 1)

	conf, _, err := svc.PlaceOrder(ctx, validForm())
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, conf.OrderID, pub.published[0].OrderID)
}

func TestPlaceOrder_PublishFailureDoesNotFailCheckout(t *testing.T) {
	ctx := context.Background()
	source := &mockSource{products: []domain.Product{
		{ID: "p1", Title: "Tote", Price: decimal.RequireFromString("19.50")},
	}}
	svc, st := newTestService(source)
	svc.WithPublisher(&mockPublisher{err: errors.New("broker down")})
	st.AddLine(ctx, "p1", 1)

	_, _, err := svc.PlaceOrder(ctx, validForm())
	require.NoError(t, err)
	assert.True(t, st.Read(ctx).Empty())
}
