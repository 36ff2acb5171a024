package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MeterStatus string

const (
	ActiveMeter  MeterStatus = "ACTIVE"
	FaultyMeter  MeterStatus = "FAULTY"
	RemovedMeter MeterStatus = "REMOVED"
)

// InitialReadingType marks the opening reading recorded at installation.
const InitialReadingType = "initial"

// MeterType describes a meter model; provisioning installs the default active one.
type MeterType struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Code        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Meter struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	SerialNumber     string          `gorm:"uniqueIndex;not null" json:"serial_number"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	MeterTypeID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"meter_type_id"`
	LastReading      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"last_reading"`
	LastReadingDate  time.Time       `gorm:"not null" json:"last_reading_date"`
	InstallationDate time.Time       `gorm:"not null" json:"installation_date"`
	Status           MeterStatus     `gorm:"type:varchar(20);default:'ACTIVE';index" json:"status"`

	MeterType MeterType `gorm:"foreignKey:MeterTypeID" json:"meter_type"`

	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MeterReading is one entry in a meter's reading history, shared with billing.
type MeterReading struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	MeterID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"meter_id"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	ReadingType     string          `gorm:"type:varchar(20);not null" json:"reading_type"`
	PreviousReading decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"previous_reading"`
	CurrentReading  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"current_reading"`
	Consumption     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"consumption"`
	ReadingDate     time.Time       `gorm:"not null;index" json:"reading_date"`
	Notes           *string         `json:"notes"`

	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (mt *MeterType) BeforeCreate(tx *gorm.DB) (err error) {
	if mt.ID == uuid.Nil {
		mt.ID = uuid.New()
	}
	return
}

func (m *Meter) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

func (mr *MeterReading) BeforeCreate(tx *gorm.DB) (err error) {
	if mr.ID == uuid.Nil {
		mr.ID = uuid.New()
	}
	return
}
