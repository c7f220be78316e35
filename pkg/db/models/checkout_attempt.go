package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lfbag/storefront/pkg/enums"
	"github.com/lfbag/storefront/pkg/types"
)

// CheckoutAttempt audits one checkout submission and how it ended.
type CheckoutAttempt struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SessionID       string                `gorm:"column:session_id;type:varchar(64);not null;index"`
	CartID          string                `gorm:"column:cart_id;type:varchar(64)"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:varchar(32);not null"`
	DeliveryMethod  enums.DeliveryMethod  `gorm:"column:delivery_method;type:varchar(32);not null"`
	Installments    int                   `gorm:"column:installments;not null;default:1"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee     decimal.Decimal       `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	Status          enums.PaymentStatus   `gorm:"column:status;type:varchar(16);not null"`
	FinalState      enums.CheckoutState   `gorm:"column:final_state;type:varchar(16);not null"`
	PaymentID       string                `gorm:"column:payment_id;type:varchar(64)"`
	Message         string                `gorm:"column:message;type:text"`
	PayerEmail      string                `gorm:"column:payer_email;type:varchar(255)"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (CheckoutAttempt) TableName() string { return "checkout_attempts" }

// BeforeCreate assigns the primary key on drivers without uuid defaults.
func (a *CheckoutAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
