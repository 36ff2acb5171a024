package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionPayment is one accepted posting against a subscription request.
// The running total lives on SubscriptionRequest.PaidAmount; these rows are the audit trail.
type SubscriptionPayment struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	SubscriptionRequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"subscription_request_id"`

	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaidTotal    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"paid_total"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Reference    *string         `gorm:"index" json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	PaidAt       time.Time       `gorm:"not null" json:"paid_at"`

	// Audit trail
	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *SubscriptionPayment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	return
}
