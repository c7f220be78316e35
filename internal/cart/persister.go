package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lfbag/storefront/pkg/db/models"
	pkgredis "github.com/lfbag/storefront/pkg/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persister loads and saves the whole cart of a session.
type Persister interface {
	Load(ctx context.Context, sessionID string) ([]Item, error)
	Save(ctx context.Context, sessionID string, items []Item) error
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type cartKeyer interface {
	CartKey(sessionID string) string
}

// RedisPersister keeps each cart as a JSON document with a sliding TTL.
type RedisPersister struct {
	store kvStore
	keyer cartKeyer
	ttl   time.Duration
}

// NewRedisPersister builds a persister over the shared redis client.
func NewRedisPersister(client *pkgredis.Client, ttl time.Duration) (*RedisPersister, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return newRedisPersister(client, client, ttl), nil
}

func newRedisPersister(store kvStore, keyer cartKeyer, ttl time.Duration) *RedisPersister {
	return &RedisPersister{store: store, keyer: keyer, ttl: ttl}
}

func (p *RedisPersister) Load(ctx context.Context, sessionID string) ([]Item, error) {
	raw, err := p.store.Get(ctx, p.keyer.CartKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

func (p *RedisPersister) Save(ctx context.Context, sessionID string, items []Item) error {
	key := p.keyer.CartKey(sessionID)
	if len(items) == 0 {
		if err := p.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := p.store.Set(ctx, key, payload, p.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// SnapshotPersister stores carts in the cart_snapshots table.
type SnapshotPersister struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSnapshotPersister builds a persister bound to db.
func NewSnapshotPersister(db *gorm.DB, ttl time.Duration) *SnapshotPersister {
	return &SnapshotPersister{db: db, ttl: ttl, now: time.Now}
}

func (p *SnapshotPersister) Load(ctx context.Context, sessionID string) ([]Item, error) {
	var snapshot models.CartSnapshot
	err := p.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	if snapshot.ExpiresAt != nil && !snapshot.ExpiresAt.After(p.now()) {
		return nil, nil
	}
	items := make([]Item, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, Item{
			ID:         line.ID,
			Titulo:     line.Titulo,
			Preco:      line.Preco,
			Quantidade: line.Quantidade,
			ImagemURL:  line.ImagemURL,
			CorPadrao:  line.CorPadrao,
		})
	}
	return items, nil
}

func (p *SnapshotPersister) Save(ctx context.Context, sessionID string, items []Item) error {
	if len(items) == 0 {
		err := p.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartSnapshot{}).Error
		if err != nil {
			return fmt.Errorf("delete cart snapshot: %w", err)
		}
		return nil
	}

	lines := make([]models.CartLine, 0, len(items))
	count := 0
	for _, item := range items {
		lines = append(lines, models.CartLine{
			ID:         item.ID,
			Titulo:     item.Titulo,
			Preco:      item.Preco,
			Quantidade: item.Quantidade,
			ImagemURL:  item.ImagemURL,
			CorPadrao:  item.CorPadrao,
		})
		count += item.Quantidade
	}

	snapshot := models.CartSnapshot{SessionID: sessionID, Lines: lines, ItemCount: count}
	if p.ttl > 0 {
		expires := p.now().Add(p.ttl)
		snapshot.ExpiresAt = &expires
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lines", "item_count", "expires_at", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
