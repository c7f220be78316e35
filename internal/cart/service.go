package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpClear  = "clear"
)

type mutationRecorder interface {
	IncCartMutation(op string)
}

// Snapshot is the cart as rendered to callers.
type Snapshot struct {
	Items    []Item          `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func snapshotOf(s *Store) *Snapshot {
	return &Snapshot{Items: s.Items(), Count: s.Count(), Subtotal: s.Subtotal()}
}

// Service applies cart operations to a session's persisted cart.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Snapshot, error)
	Add(ctx context.Context, sessionID string, item Item) (*Snapshot, error)
	Remove(ctx context.Context, sessionID, itemID string) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Snapshot, error)
	Clear(ctx context.Context, sessionID string) (*Snapshot, error)
}

type service struct {
	persister Persister
	metrics   mutationRecorder
	logg      *logger.Logger
	locks     *sessionLocks
}

// NewService builds a cart service over persister. metrics and logg may be nil.
func NewService(persister Persister, metrics mutationRecorder, logg *logger.Logger) (Service, error) {
	if persister == nil {
		return nil, fmt.Errorf("cart persister required")
	}
	return &service{
		persister: persister,
		metrics:   metrics,
		logg:      logg,
		locks:     newSessionLocks(),
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(store), nil
}

func (s *service) Add(ctx context.Context, sessionID string, item Item) (*Snapshot, error) {
	item.ID = strings.TrimSpace(item.ID)
	fields := pkgerrors.FieldErrors{}
	if item.ID == "" {
		fields.Add("id", "is required")
	}
	if item.Preco.IsNegative() {
		fields.Add("preco", "must not be negative")
	}
	if err := fields.Err(""); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, OpAdd, func(store *Store) { store.AddToCart(item) })
}

func (s *service) Remove(ctx context.Context, sessionID, itemID string) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, OpRemove, func(store *Store) { store.RemoveFromCart(itemID) })
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, OpUpdate, func(store *Store) { store.UpdateQuantity(itemID, quantity) })
}

func (s *service) Clear(ctx context.Context, sessionID string) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, OpClear, func(store *Store) { store.ClearCart() })
}

// mutate loads, applies one operation and saves while holding the session lock.
func (s *service) mutate(ctx context.Context, sessionID, op string, apply func(*Store)) (*Snapshot, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	store, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	apply(store)
	if err := s.persister.Save(ctx, sessionID, store.Items()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist cart")
	}

	if s.metrics != nil {
		s.metrics.IncCartMutation(op)
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"op": op, "cart_count": store.Count()}), "cart.mutated")
	}
	return snapshotOf(store), nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Store, error) {
	items, err := s.persister.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	return NewStore(items), nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "storefront session required")
	}
	return nil
}

// sessionLocks hands out one mutex per session and forgets it once idle.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sessionLock{}}
}

func (l *sessionLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &sessionLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
