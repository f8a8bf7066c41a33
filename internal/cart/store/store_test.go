package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkress/shopfront/internal/cart/domain"
	"github.com/dkress/shopfront/internal/cart/storage"
)

// brokenStorage fails every operation, to exercise the swallow policy.
type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}
func (brokenStorage) Set(context.Context, string, []byte) error {
	return errors.New("storage unavailable")
}
func (brokenStorage) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}

func newTestStore() *Store {
	return New(storage.NewMemoryStorage())
}

func TestRead_EmptyOnFirstUse(t *testing.T) {
	s := newTestStore()
	cart := s.Read(context.Background())
	assert.True(t, cart.Empty())
}

func TestRead_CorruptBlobYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, SlotKey, []byte("{not json")))

	s := New(mem)
	assert.True(t, s.Read(ctx).Empty())
}

func TestRead_MalformedLinesAreRepaired(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	blob := []byte(`[{"id":"a","qty":2},{"id":"a","qty":3},{"id":"","qty":9},{"id":"b","qty":0}]`)
	require.NoError(t, mem.Set(ctx, SlotKey, blob))

	s := New(mem)
	cart := s.Read(ctx)
	assert.Equal(t, []domain.Line{{ProductID: "a", Quantity: 5}}, cart.Lines)
}

func TestAddLine_MergeAccumulation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 2)
	s.AddLine(ctx, "p1", 3)

	cart := s.Read(ctx)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, domain.Line{ProductID: "p1", Quantity: 5}, cart.Lines[0])
}

func TestAddLine_FloorsQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 0)
	s.AddLine(ctx, "p2", -7)

	cart := s.Read(ctx)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
	assert.Equal(t, 1, cart.Lines[1].Quantity)
}

func TestAddLine_EmptyProductIDIgnored(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "", 3)
	assert.True(t, s.Read(ctx).Empty())
}

func TestSetQuantity_Floor(t *testing.T) {
	ctx := context.Background()

	for _, q := range []int{-10, -1, 0} {
		s := newTestStore()
		s.AddLine(ctx, "p1", 5)
		s.SetQuantity(ctx, "p1", q)

		cart := s.Read(ctx)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 1, cart.Lines[0].Quantity, "input %d must floor to exactly 1", q)
	}
}

func TestSetQuantity_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 2)
	s.SetQuantity(ctx, "p1", 7)

	cart := s.Read(ctx)
	assert.Equal(t, 7, cart.Lines[0].Quantity)
}

func TestSetQuantity_UnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 2)
	s.SetQuantity(ctx, "ghost", 5)

	cart := s.Read(ctx)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
}

func TestRemoveLine_IsTotal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 2)
	s.AddLine(ctx, "p2", 1)

	s.RemoveLine(ctx, "p1")
	cart := s.Read(ctx)
	assert.Equal(t, -1, cart.Find("p1"))
	require.Len(t, cart.Lines, 1)

	// Removing again is a no-op producing no error.
	s.RemoveLine(ctx, "p1")
	assert.Len(t, s.Read(ctx).Lines, 1)
}

func TestClear_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 4)
	s.Clear(ctx)
	assert.True(t, s.Read(ctx).Empty())

	s.Clear(ctx)
	assert.True(t, s.Read(ctx).Empty())
}

func TestTotalQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "p1", 2)
	s.AddLine(ctx, "p2", 3)
	assert.Equal(t, 5, s.TotalQuantity(ctx))
}

func TestOrderPreservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	s.AddLine(ctx, "b", 1)
	s.AddLine(ctx, "a", 1)
	s.AddLine(ctx, "c", 1)

	// Later quantity edits must not reorder lines.
	s.SetQuantity(ctx, "a", 9)
	s.AddLine(ctx, "b", 2)

	cart := s.Read(ctx)
	ids := make([]string, len(cart.Lines))
	for i, l := range cart.Lines {
		ids[i] = l.ProductID
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	count := 0
	unsubscribe := s.Subscribe(func() { count++ })

	s.AddLine(ctx, "p1", 1)
	s.SetQuantity(ctx, "p1", 3)
	s.RemoveLine(ctx, "p1")
	s.Clear(ctx)
	s.Write(ctx, domain.Cart{Lines: []domain.Line{{ProductID: "p2", Quantity: 1}}})
	assert.Equal(t, 5, count, "every mutating call notifies exactly once")

	// Non-mutating calls never notify.
	s.Read(ctx)
	s.TotalQuantity(ctx)
	assert.Equal(t, 5, count)

	// SetQuantity on an absent line is a no-op with no notification.
	s.SetQuantity(ctx, "ghost", 2)
	assert.Equal(t, 5, count)

	unsubscribe()
	s.AddLine(ctx, "p3", 1)
	assert.Equal(t, 5, count)
}

func TestSubscribe_FiresInSubscriptionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var order []string
	s.Subscribe(func() { order = append(order, "first") })
	s.Subscribe(func() { order = append(order, "second") })

	s.AddLine(ctx, "p1", 1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBrokenStorage_MutationsAppearToSucceed(t *testing.T) {
	ctx := context.Background()
	s := New(brokenStorage{})

	notified := 0
	s.Subscribe(func() { notified++ })

	// None of these may panic or surface an error; durability is best effort.
	s.AddLine(ctx, "p1", 2)
	s.RemoveLine(ctx, "p1")
	s.Clear(ctx)

	assert.True(t, s.Read(ctx).Empty())
	assert.Equal(t, 3, notified)
}

func TestTwoStoresOneSlot_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	tabA := New(mem)
	tabB := New(mem)

	tabA.AddLine(ctx, "a", 1)
	tabB.Write(ctx, domain.Cart{Lines: []domain.Line{{ProductID: "b", Quantity: 2}}})

	// No merge across stores: the slot holds whatever was written last.
	cart := tabA.Read(ctx)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "b", cart.Lines[0].ProductID)
}
