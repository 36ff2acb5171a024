package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerStatus string

const (
	ActiveCustomer    CustomerStatus = "ACTIVE"
	SuspendedCustomer CustomerStatus = "SUSPENDED"
	ClosedCustomer    CustomerStatus = "CLOSED"
)

// CustomerCategory groups customers for billing, e.g. RES for residential.
type CustomerCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Code        string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Customer is a billable account created when a subscription request is provisioned.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	AccountNo  string    `gorm:"uniqueIndex;not null" json:"account_no"`
	Name       string    `gorm:"not null;index" json:"name"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`

	IDDocumentType   *string  `gorm:"type:varchar(30)" json:"id_document_type"`
	IDDocumentNumber *string  `gorm:"type:varchar(50)" json:"id_document_number"`
	Phone            *string  `gorm:"type:varchar(20)" json:"phone"`
	Mobile           *string  `gorm:"type:varchar(20)" json:"mobile"`
	Email            *string  `json:"email"`
	Address          string   `gorm:"not null" json:"address"`
	City             *string  `json:"city"`
	District         *string  `json:"district"`
	PostalCode       *string  `gorm:"type:varchar(20)" json:"postal_code"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`

	Status                CustomerStatus `gorm:"type:varchar(20);default:'ACTIVE';index" json:"status"`
	ConnectionDate        time.Time      `gorm:"not null" json:"connection_date"`
	SubscriptionRequestID *uuid.UUID     `gorm:"type:uuid;index" json:"subscription_request_id"`

	Category CustomerCategory `gorm:"foreignKey:CategoryID" json:"category"`
	Meters   []Meter          `gorm:"foreignKey:CustomerID" json:"meters,omitempty"`

	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (cc *CustomerCategory) BeforeCreate(tx *gorm.DB) (err error) {
	if cc.ID == uuid.Nil {
		cc.ID = uuid.New()
	}
	return
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
