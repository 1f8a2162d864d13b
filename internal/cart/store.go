package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNegativeQuantity = errors.New("quantity must not be negative")

// Store is the cart of one browsing session. Every mutation is applied in memory
// and then the whole item list is written back to storage.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	logger  *zap.Logger

	items []Item
	open  bool
}

func NewStore(storage Storage, key string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{storage: storage, key: key, logger: logger}
}

// Load replaces the in-memory items with the persisted snapshot. A missing or
// unreadable snapshot leaves the cart empty and is not an error. Only a storage
// failure is returned, and the cart is empty in that case too.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	data, err := s.storage.Read(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}

	items, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Debug("discarding unreadable cart snapshot", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	s.items = items
	return nil
}

// AddItem merges quantity into an existing line with the same id or appends a new
// line. A zero quantity adds one unit. Adding always opens the cart.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	if quantity == 0 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = quantity
		s.items = append(s.items, item)
	}
	s.open = true

	return s.persist(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line; anything below one removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.items[idx].Quantity = quantity
	return s.persist(ctx)
}

// Clear empties and closes the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.open = false
	if err := s.storage.Clear(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Subtotal(s.items)
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
}

// Subtotal is Σ price × quantity over items.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.storage.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

func (s *Store) snapshot() []Item {
	if s.items == nil {
		return []Item{}
	}
	return s.items
}

// decodeSnapshot restores the line invariants a snapshot may have lost: lines
// with quantity below one or a negative price are dropped, and repeated ids are
// merged into the first occurrence.
func decodeSnapshot(data []byte) ([]Item, error) {
	var raw []Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(raw))
	pos := make(map[int64]int, len(raw))
	for _, it := range raw {
		if it.Quantity < 1 || it.Price.IsNegative() {
			continue
		}
		if i, ok := pos[it.ID]; ok {
			items[i].Quantity += it.Quantity
			continue
		}
		pos[it.ID] = len(items)
		items = append(items, it)
	}
	return items, nil
}
