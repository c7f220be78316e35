package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one persisted cart entry.
type CartLine struct {
	ID         string          `json:"id"`
	Titulo     string          `json:"titulo"`
	Preco      decimal.Decimal `json:"preco"`
	Quantidade int             `json:"quantidade"`
	ImagemURL  string          `json:"imagem_url,omitempty"`
	CorPadrao  string          `json:"cor_padrao,omitempty"`
}

// CartSnapshot stores the whole cart of a storefront session as one row.
type CartSnapshot struct {
	SessionID string     `gorm:"column:session_id;type:varchar(64);primaryKey"`
	Lines     []CartLine `gorm:"column:lines;type:jsonb;serializer:json;not null"`
	ItemCount int        `gorm:"column:item_count;not null;default:0"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartSnapshot) TableName() string { return "cart_snapshots" }
