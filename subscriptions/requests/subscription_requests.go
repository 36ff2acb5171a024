package requests

import (
	"utility-billing-backend/db/models"
	"utility-billing-backend/utils"

	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest carries the applicant data captured at the front desk.
type CreateSubscriptionRequest struct {
	ApplicantName    string              `json:"applicant_name" validate:"required,max=150"`
	CustomerType     models.CustomerType `json:"customer_type" validate:"required,oneof=residential commercial industrial agricultural governmental"`
	IDDocumentType   *string             `json:"id_document_type" validate:"omitempty,max=30"`
	IDDocumentNumber *string             `json:"id_document_number" validate:"omitempty,max=50"`
	Phone            *string             `json:"phone" validate:"omitempty,max=20"`
	Mobile           *string             `json:"mobile" validate:"omitempty,max=20"`
	Email            *string             `json:"email" validate:"omitempty,email"`
	Address          string              `json:"address" validate:"required,max=255"`
	City             *string             `json:"city" validate:"omitempty,max=100"`
	District         *string             `json:"district" validate:"omitempty,max=100"`
	PostalCode       *string             `json:"postal_code" validate:"omitempty,max=20"`
	Latitude         *float64            `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude        *float64            `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Notes            *string             `json:"notes"`
	CreatedBy        string              `json:"created_by" validate:"required"`
}

// UpdateSubscriptionRequest is a patch of applicant fields; nil fields are left alone.
type UpdateSubscriptionRequest struct {
	ApplicantName    *string              `json:"applicant_name" validate:"omitempty,min=1,max=150"`
	CustomerType     *models.CustomerType `json:"customer_type" validate:"omitempty,oneof=residential commercial industrial agricultural governmental"`
	IDDocumentType   *string              `json:"id_document_type" validate:"omitempty,max=30"`
	IDDocumentNumber *string              `json:"id_document_number" validate:"omitempty,max=50"`
	Phone            *string              `json:"phone" validate:"omitempty,max=20"`
	Mobile           *string              `json:"mobile" validate:"omitempty,max=20"`
	Email            *string              `json:"email" validate:"omitempty,email"`
	Address          *string              `json:"address" validate:"omitempty,min=1,max=255"`
	City             *string              `json:"city" validate:"omitempty,max=100"`
	District         *string              `json:"district" validate:"omitempty,max=100"`
	PostalCode       *string              `json:"postal_code" validate:"omitempty,max=20"`
	Latitude         *float64             `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude        *float64             `json:"longitude" validate:"omitempty,min=-180,max=180"`
	UpdatedBy        string               `json:"updated_by" validate:"required"`
}

// ApproveSubscriptionRequest requires every fee, zero included, so a dropped field is
// rejected instead of being read as nothing due.
type ApproveSubscriptionRequest struct {
	SubscriptionFee *decimal.Decimal `json:"subscription_fee" validate:"required"`
	ConnectionFee   *decimal.Decimal `json:"connection_fee" validate:"required"`
	DepositAmount   *decimal.Decimal `json:"deposit_amount" validate:"required"`
	ApprovedBy      string           `json:"approved_by" validate:"required"`
}

type RejectSubscriptionRequest struct {
	Reason     string `json:"reason" validate:"required"`
	RejectedBy string `json:"rejected_by"`
}

type CancelSubscriptionRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

type RecordPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Reference  *string         `json:"reference" validate:"omitempty,max=100"`
	Notes      *string         `json:"notes"`
	ReceivedBy string          `json:"received_by"`
}

type AssignTechnicianRequest struct {
	TechnicianID      string          `json:"technician_id" validate:"required"`
	ScheduledDate     *utils.DateOnly `json:"scheduled_date"`
	MeterSerialNumber *string         `json:"meter_serial_number" validate:"omitempty,max=50"`
	AssignedBy        string          `json:"assigned_by"`
}

type StartInstallationRequest struct {
	StartedBy string `json:"started_by"`
}

type CompleteInstallationRequest struct {
	MeterSerialNumber string          `json:"meter_serial_number" validate:"omitempty,max=50"`
	InitialReading    decimal.Decimal `json:"initial_reading"`
	Notes             *string         `json:"notes"`
	CompletedBy       string          `json:"completed_by"`
}

// ProvisioningResult is what completeInstallation hands back for confirmation and printing.
type ProvisioningResult struct {
	Request  *models.SubscriptionRequest `json:"request"`
	Customer *models.Customer            `json:"customer"`
	Meter    *models.Meter               `json:"meter"`
}
