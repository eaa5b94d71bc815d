// Package cart implements the in-memory line item store: the authoritative
// set of (product, quantity) pairs for one active cart.
//
// The store enforces the per-item invariants (quantity >= 1, one line item
// per product ID, quantity bounded by the stock captured at add-time) and
// notifies registered observers with a fresh snapshot after every mutation.
// Callers never see internal state directly, only immutable snapshots.
package cart

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/domain"
)

// Observer receives the new cart snapshot after a successful mutation.
type Observer func(snapshot domain.CartSnapshot)

// Store holds the line items for a single cart.
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	items     []domain.LineItem
	index     map[string]int // product ID -> position in items
	observers []Observer
	validate  *validator.Validate
}

// NewStore creates an empty line item store.
func NewStore() *Store {
	return &Store{
		index:    make(map[string]int),
		validate: validator.New(),
	}
}

// Subscribe registers an observer called after every successful mutation.
// Observers run synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Upsert adds delta units of the product. If the product is already present
// the quantities merge; otherwise a new line item is appended. A delta of 0
// defaults to 1. Fails with an insufficient-stock error when the resulting
// quantity would exceed the snapshot's available stock, leaving the store
// unchanged.
func (s *Store) Upsert(p domain.ProductSnapshot, delta int) (domain.CartSnapshot, error) {
	const op = "cart.upsert"

	if delta == 0 {
		delta = 1
	}
	if delta < 0 {
		return domain.CartSnapshot{}, domain.WrapError(domain.ErrInvalidQuantity, domain.EINVALID, op, "quantity delta must be positive")
	}
	if err := s.validateSnapshot(p); err != nil {
		return domain.CartSnapshot{}, domain.WrapError(err, domain.EINVALID, op, "invalid product snapshot")
	}

	s.mu.Lock()

	newQty := delta
	if pos, ok := s.index[p.ProductID]; ok {
		newQty = s.items[pos].Quantity + delta
	}
	if newQty > p.AvailableStock {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.WrapError(domain.ErrInsufficientStock, domain.EINSUFFICIENTSTOCK, op,
			"requested quantity exceeds available stock")
	}

	if pos, ok := s.index[p.ProductID]; ok {
		s.items[pos].Quantity = newQty
		s.items[pos].LineSubtotal = s.items[pos].UnitPrice.Mul(decimal.NewFromInt(int64(newQty)))
	} else {
		s.index[p.ProductID] = len(s.items)
		s.items = append(s.items, domain.LineItem{
			ProductID:      p.ProductID,
			Name:           p.Name,
			UnitPrice:      p.UnitPrice,
			ImageRef:       p.ImageRef,
			AvailableStock: p.AvailableStock,
			Quantity:       newQty,
			LineSubtotal:   p.UnitPrice.Mul(decimal.NewFromInt(int64(newQty))),
		})
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// SetQuantity sets the absolute quantity for a product. A quantity of 0 or
// less removes the item. Requests above the item's available stock fail with
// an insufficient-stock error rather than silently clamping.
func (s *Store) SetQuantity(productID string, qty int) (domain.CartSnapshot, error) {
	const op = "cart.setQuantity"

	if qty <= 0 {
		return s.Remove(productID)
	}

	s.mu.Lock()

	pos, ok := s.index[productID]
	if !ok {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.NotFound(op, "line item", productID)
	}
	if qty > s.items[pos].AvailableStock {
		s.mu.Unlock()
		return domain.CartSnapshot{}, domain.WrapError(domain.ErrInsufficientStock, domain.EINSUFFICIENTSTOCK, op,
			"requested quantity exceeds available stock")
	}

	s.items[pos].Quantity = qty
	s.items[pos].LineSubtotal = s.items[pos].UnitPrice.Mul(decimal.NewFromInt(int64(qty)))

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Remove deletes the product's line item. Removing an absent product is a
// no-op, not an error.
func (s *Store) Remove(productID string) (domain.CartSnapshot, error) {
	s.mu.Lock()

	pos, ok := s.index[productID]
	if ok {
		s.items = append(s.items[:pos], s.items[pos+1:]...)
		delete(s.index, productID)
		for i := pos; i < len(s.items); i++ {
			s.index[s.items[i].ProductID] = i
		}
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.notify(snap)
	}
	return snap, nil
}

// Clear empties the store.
func (s *Store) Clear() domain.CartSnapshot {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[string]int)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// Replace swaps the store's contents for the given line items, preserving
// their order. Used when restoring a persisted snapshot. Items that violate
// the store invariants are rejected wholesale.
func (s *Store) Replace(items []domain.LineItem) (domain.CartSnapshot, error) {
	const op = "cart.replace"

	index := make(map[string]int, len(items))
	restored := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return domain.CartSnapshot{}, domain.Invalid(op, "persisted line item violates cart invariants")
		}
		if _, dup := index[item.ProductID]; dup {
			return domain.CartSnapshot{}, domain.Invalid(op, "persisted snapshot contains duplicate product IDs")
		}
		item.LineSubtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		index[item.ProductID] = len(restored)
		restored = append(restored, item)
	}

	s.mu.Lock()
	s.items = restored
	s.index = index
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Snapshot returns an immutable copy of the current line items with derived
// totals.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Contains reports whether the product has a line item in the store.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[productID]
	return ok
}

// Quantity returns the stored quantity for a product, or 0 if absent.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.index[productID]; ok {
		return s.items[pos].Quantity
	}
	return 0
}

func (s *Store) validateSnapshot(p domain.ProductSnapshot) error {
	if err := s.validate.Struct(p); err != nil {
		return domain.ErrInvalidSnapshot
	}
	if p.UnitPrice.IsNegative() {
		return domain.ErrInvalidSnapshot
	}
	return nil
}

// snapshotLocked builds a snapshot; callers must hold s.mu.
func (s *Store) snapshotLocked() domain.CartSnapshot {
	items := make([]domain.LineItem, len(s.items))
	copy(items, s.items)

	subtotal := decimal.Zero
	itemCount := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineSubtotal)
		itemCount += item.Quantity
	}

	return domain.CartSnapshot{
		Items:     items,
		ItemCount: itemCount,
		Subtotal:  subtotal,
	}
}

// notify is called outside the lock so observers can re-read the store.
func (s *Store) notify(snap domain.CartSnapshot) {
	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
