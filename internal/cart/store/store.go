package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/dkress/shopfront/internal/cart/domain"
	"github.com/dkress/shopfront/internal/cart/storage"
)

// SlotKey is the versioned storage slot holding the cart blob. The suffix
// allows a future layout migration without clashing with the old blob.
const SlotKey = "shopfront.cart.v1"

// Store is the single source of truth for desired purchase quantities. It is
// the sole writer of the persisted slot and the sole publisher of change
// notifications. All operations are synchronous; mutations are serialized by
// an internal mutex so a read-modify-write never interleaves with another
// mutation from the same process.
//
// Two Stores sharing one Storage (the multi-tab case) are last-writer-wins:
// no merge, no lock across processes.
type Store struct {
	m       sync.Mutex
	storage storage.Storage
	key     string

	subM    sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func()
}

func New(st storage.Storage) *Store {
	return NewWithKey(st, SlotKey)
}

func NewWithKey(st storage.Storage, key string) *Store {
	return &Store{storage: st, key: key}
}

// Read returns the persisted cart. It fails closed: an absent, unparsable,
// or malformed blob yields an empty cart, never an error. Lines violating
// invariants (empty id, quantity < 1, duplicate id) are repaired on the way
// out so corrupt storage cannot poison later writes.
func (s *Store) Read(ctx context.Context) domain.Cart {
	s.m.Lock()
	defer s.m.Unlock()
	return s.read(ctx)
}

func (s *Store) read(ctx context.Context) domain.Cart {
	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("cart storage get error: %v", err)
		}
		return domain.Cart{}
	}

	var lines []domain.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		log.Printf("cart blob unparsable, starting empty: %v", err)
		return domain.Cart{}
	}

	return domain.Normalize(domain.Cart{Lines: lines})
}

// Write replaces the entire persisted cart and notifies subscribers. Storage
// failures are deliberately swallowed: a mutation always appears to succeed
// from the caller's perspective, durability is best effort.
func (s *Store) Write(ctx context.Context, cart domain.Cart) {
	s.m.Lock()
	s.write(ctx, cart)
	s.m.Unlock()
	s.notify()
}

func (s *Store) write(ctx context.Context, cart domain.Cart) {
	cart = domain.Normalize(cart)

	data, err := json.Marshal(cart.Lines)
	if err != nil {
		log.Printf("cart marshal error: %v", err)
		return
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		log.Printf("cart storage set error: %v", err)
	}
}

// AddLine is the merge rule: an existing line for productID accumulates qty,
// an absent one is appended. qty is floored to 1, there is no upper bound.
func (s *Store) AddLine(ctx context.Context, productID string, qty int) {
	if productID == "" {
		return
	}
	qty = domain.ClampQuantity(qty)

	s.m.Lock()
	cart := s.read(ctx)
	if i := cart.Find(productID); i >= 0 {
		cart.Lines[i].Quantity += qty
	} else {
		cart.Lines = append(cart.Lines, domain.Line{ProductID: productID, Quantity: qty})
	}
	s.write(ctx, cart)
	s.m.Unlock()
	s.notify()
}

// SetQuantity overwrites the quantity of an existing line, clamping any
// input below 1 to exactly 1. It never creates a line: an unknown productID
// is a no-op with no notification, since only AddLine creates lines.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) {
	qty = domain.ClampQuantity(qty)

	s.m.Lock()
	cart := s.read(ctx)
	i := cart.Find(productID)
	if i < 0 {
		s.m.Unlock()
		return
	}
	cart.Lines[i].Quantity = qty
	s.write(ctx, cart)
	s.m.Unlock()
	s.notify()
}

// RemoveLine deletes the line for productID. An absent id is not an error;
// the write and the notification still happen.
func (s *Store) RemoveLine(ctx context.Context, productID string) {
	s.m.Lock()
	cart := s.read(ctx)
	filtered := cart.Lines[:0:0]
	for _, l := range cart.Lines {
		if l.ProductID != productID {
			filtered = append(filtered, l)
		}
	}
	s.write(ctx, domain.Cart{Lines: filtered})
	s.m.Unlock()
	s.notify()
}

// Clear replaces the cart with an empty one.
func (s *Store) Clear(ctx context.Context) {
	s.m.Lock()
	s.write(ctx, domain.Cart{})
	s.m.Unlock()
	s.notify()
}

// TotalQuantity sums all line quantities, for the item-count badge. It needs
// no catalog and fires no notification.
func (s *Store) TotalQuantity(ctx context.Context) int {
	return s.Read(ctx).TotalQuantity()
}

// Subscribe registers fn to run after every mutation. The notification
// carries no payload; subscribers re-Read the store. Subscribers fire
// synchronously in subscription order. The returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.subM.Lock()
	defer s.subM.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subM.Lock()
		defer s.subM.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	s.subM.Lock()
	fns := make([]func(), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	s.subM.Unlock()

	for _, fn := range fns {
		fn()
	}
}
