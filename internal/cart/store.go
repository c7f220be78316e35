package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderImageURL replaces an empty image on add.
const PlaceholderImageURL = "https://placehold.co/400x400?text=LF+Bag"

// MaxQuantity caps a single line. Merges and updates saturate at it.
const MaxQuantity = 999

// Item is one cart line.
type Item struct {
	ID         string          `json:"id"`
	Titulo     string          `json:"titulo"`
	Preco      decimal.Decimal `json:"preco"`
	Quantidade int             `json:"quantidade"`
	ImagemURL  string          `json:"imagem_url,omitempty"`
	CorPadrao  string          `json:"cor_padrao,omitempty"`
}

// LineTotal is preco × quantidade.
func (i Item) LineTotal() decimal.Decimal {
	return i.Preco.Mul(decimal.NewFromInt(int64(i.Quantidade)))
}

// Store is the ordered cart of one session. Insertion order is display
// order and ids are unique. It is not safe for concurrent use; Service
// serializes access per session.
type Store struct {
	items []Item
	count int
}

// NewStore restores a cart from persisted lines, merging duplicate ids and
// dropping lines with no quantity.
func NewStore(items []Item) *Store {
	s := &Store{}
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" || item.Quantidade < 1 {
			continue
		}
		item.Quantidade = clampQuantity(item.Quantidade)
		if idx := s.indexOf(item.ID); idx >= 0 {
			s.items[idx].Quantidade = mergeQuantity(s.items[idx].Quantidade, item.Quantidade)
			continue
		}
		s.items = append(s.items, item)
	}
	s.recount()
	return s
}

// AddToCart merges by id or appends. Quantities below 1 count as 1 and a
// line never exceeds MaxQuantity.
func (s *Store) AddToCart(item Item) {
	if item.Quantidade < 1 {
		item.Quantidade = 1
	}
	item.Quantidade = clampQuantity(item.Quantidade)
	if idx := s.indexOf(item.ID); idx >= 0 {
		s.items[idx].Quantidade = mergeQuantity(s.items[idx].Quantidade, item.Quantidade)
		s.recount()
		return
	}
	if strings.TrimSpace(item.ImagemURL) == "" {
		item.ImagemURL = PlaceholderImageURL
	}
	s.items = append(s.items, item)
	s.recount()
}

// RemoveFromCart drops the line with id; unknown ids are a no-op.
func (s *Store) RemoveFromCart(id string) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.recount()
}

// UpdateQuantity sets the quantity of id; q <= 0 removes the line.
// No stock clamp is applied, only MaxQuantity.
func (s *Store) UpdateQuantity(id string, q int) {
	if q <= 0 {
		s.RemoveFromCart(id)
		return
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.items[idx].Quantidade = clampQuantity(q)
	s.recount()
}

func (s *Store) ClearCart() {
	s.items = nil
	s.recount()
}

// Items returns a copy of the lines in display order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	return s.count
}

// Subtotal is Σ(preco × quantidade).
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) recount() {
	n := 0
	for _, item := range s.items {
		n += item.Quantidade
	}
	s.count = n
}

func clampQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// mergeQuantity adds two in-range quantities without overflowing the cap.
func mergeQuantity(current, add int) int {
	if add >= MaxQuantity-current {
		return MaxQuantity
	}
	return current + add
}
