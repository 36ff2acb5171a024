package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResetPeriod string

const (
	NeverReset   ResetPeriod = "NONE"
	YearlyReset  ResetPeriod = "YEARLY"
	MonthlyReset ResetPeriod = "MONTHLY"
)

// NumberSequence is a named counter behind human-readable numbers such as request and
// account numbers. PeriodKey holds the year or month the current value belongs to.
type NumberSequence struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;" json:"id"`
	Name         string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Prefix       string      `gorm:"type:varchar(10);not null" json:"prefix"`
	Padding      int         `gorm:"not null;default:6" json:"padding"`
	ResetPeriod  ResetPeriod `gorm:"type:varchar(10);not null;default:'NONE'" json:"reset_period"`
	PeriodKey    string      `gorm:"type:varchar(10)" json:"period_key"`
	CurrentValue int64       `gorm:"not null;default:0" json:"current_value"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ns *NumberSequence) BeforeCreate(tx *gorm.DB) (err error) {
	if ns.ID == uuid.Nil {
		ns.ID = uuid.New()
	}
	return
}
