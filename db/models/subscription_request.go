package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionStatus is the lifecycle stage of a subscription request.
type SubscriptionStatus string

const (
	PendingReviewSubscription   SubscriptionStatus = "PENDING_REVIEW"
	PendingPaymentSubscription  SubscriptionStatus = "PENDING_PAYMENT"
	PaymentReceivedSubscription SubscriptionStatus = "PAYMENT_RECEIVED"
	AssignedSubscription        SubscriptionStatus = "ASSIGNED"
	InProgressSubscription      SubscriptionStatus = "IN_PROGRESS"
	CompletedSubscription       SubscriptionStatus = "COMPLETED"
	RejectedSubscription        SubscriptionStatus = "REJECTED"
	CancelledSubscription       SubscriptionStatus = "CANCELLED"

	// ApprovedSubscription is only found on rows written by the previous system.
	ApprovedSubscription SubscriptionStatus = "APPROVED"
)

type PaymentStatus string

const (
	PendingPayment PaymentStatus = "PENDING"
	PartialPayment PaymentStatus = "PARTIAL"
	PaidPayment    PaymentStatus = "PAID"
)

// CustomerType is the applicant's declared category of use.
type CustomerType string

const (
	ResidentialCustomer  CustomerType = "residential"
	CommercialCustomer   CustomerType = "commercial"
	IndustrialCustomer   CustomerType = "industrial"
	AgriculturalCustomer CustomerType = "agricultural"
	GovernmentalCustomer CustomerType = "governmental"
)

// SubscriptionRequest is one applicant's case from application through to installed meter.
type SubscriptionRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	RequestNo string    `gorm:"uniqueIndex;not null" json:"request_no"`

	// Applicant details
	ApplicantName    string       `gorm:"not null;index" json:"applicant_name"`
	CustomerType     CustomerType `gorm:"type:varchar(20);not null;index" json:"customer_type"`
	IDDocumentType   *string      `gorm:"type:varchar(30)" json:"id_document_type"`
	IDDocumentNumber *string      `gorm:"type:varchar(50)" json:"id_document_number"`
	Phone            *string      `gorm:"type:varchar(20)" json:"phone"`
	Mobile           *string      `gorm:"type:varchar(20)" json:"mobile"`
	Email            *string      `json:"email"`
	Address          string       `gorm:"not null" json:"address"`
	City             *string      `gorm:"index" json:"city"`
	District         *string      `json:"district"`
	PostalCode       *string      `gorm:"type:varchar(20)" json:"postal_code"`
	Latitude         *float64     `json:"latitude"`
	Longitude        *float64     `json:"longitude"`

	// Fees, set once at approval
	SubscriptionFee *decimal.Decimal `gorm:"type:decimal(15,2)" json:"subscription_fee"`
	ConnectionFee   *decimal.Decimal `gorm:"type:decimal(15,2)" json:"connection_fee"`
	DepositAmount   *decimal.Decimal `gorm:"type:decimal(15,2)" json:"deposit_amount"`
	TotalAmount     *decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_amount"`

	// Payment tracking
	PaidAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);default:'PENDING';index" json:"payment_status"`
	PaymentDate      *time.Time      `json:"payment_date"`
	PaymentReference *string         `json:"payment_reference"`

	// Workflow
	Status             SubscriptionStatus `gorm:"type:varchar(20);default:'PENDING_REVIEW';index" json:"status"`
	ApprovalDate       *time.Time         `json:"approval_date"`
	ApprovedBy         *string            `json:"approved_by"`
	RejectionReason    *string            `gorm:"type:text" json:"rejection_reason"`
	AssignedTechnician *string            `json:"assigned_technician"`
	InstallationDate   *datatypes.Date    `json:"installation_date"`
	MeterSerialNumber  *string            `json:"meter_serial_number"`
	CompletionDate     *time.Time         `json:"completion_date"`
	CustomerID         *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id"`
	Notes              string             `gorm:"type:text" json:"notes"`

	Payments []SubscriptionPayment `gorm:"foreignKey:SubscriptionRequestID" json:"payments,omitempty"`

	// Audit fields
	CreatedBy string    `gorm:"not null" json:"created_by"`
	UpdatedBy *string   `json:"updated_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Outstanding is what is left to collect, zero before approval.
func (r *SubscriptionRequest) Outstanding() decimal.Decimal {
	if r.TotalAmount == nil {
		return decimal.Zero
	}
	return r.TotalAmount.Sub(r.PaidAmount)
}

func (r *SubscriptionRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
