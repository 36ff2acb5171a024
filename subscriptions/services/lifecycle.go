package services

import (
	"fmt"
	"strings"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/numbering"
	"utility-billing-backend/subscriptions/requests"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// CreateSubscriptionRequest registers a new application in PENDING_REVIEW with a freshly
// minted request number.
func (s *SubscriptionService) CreateSubscriptionRequest(input requests.CreateSubscriptionRequest) (*models.SubscriptionRequest, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	request := &models.SubscriptionRequest{
		ApplicantName:    titleCaser.String(strings.Join(strings.Fields(input.ApplicantName), " ")),
		CustomerType:     input.CustomerType,
		IDDocumentType:   input.IDDocumentType,
		IDDocumentNumber: input.IDDocumentNumber,
		Phone:            input.Phone,
		Mobile:           input.Mobile,
		Email:            input.Email,
		Address:          strings.TrimSpace(input.Address),
		City:             input.City,
		District:         input.District,
		PostalCode:       input.PostalCode,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		PaidAmount:       decimal.Zero,
		PaymentStatus:    models.PendingPayment,
		Status:           models.PendingReviewSubscription,
		CreatedBy:        input.CreatedBy,
	}
	if input.Notes != nil && strings.TrimSpace(*input.Notes) != "" {
		request.Notes = appendNote("", s.now(), *input.Notes)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		requestNo, err := s.Numbers.NextNumber(tx, numbering.SubscriptionRequestCounter)
		if err != nil {
			return errors.Wrap(err, "failed to generate request number")
		}
		request.RequestNo = requestNo

		_, err = s.Requests.CreateSubscriptionRequest(tx, request)
		return err
	})
	s.Metrics.ObserveTransition("create", err)
	if err != nil {
		config.Logger.Error("Failed to create subscription request",
			zap.String("applicant", request.ApplicantName),
			zap.Error(err))
		return nil, err
	}

	config.Logger.Info("Subscription request created",
		zap.String("requestID", request.ID.String()),
		zap.String("requestNo", request.RequestNo),
		zap.String("customerType", string(request.CustomerType)))
	return request, nil
}

// UpdateSubscriptionRequest patches applicant data while the request is still under review.
func (s *SubscriptionService) UpdateSubscriptionRequest(id uuid.UUID, patch requests.UpdateSubscriptionRequest) (*models.SubscriptionRequest, error) {
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}

	return s.mutate("update", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if current.Status != models.PendingReviewSubscription {
			return invalidState("update", current.Status)
		}

		updates := map[string]interface{}{"updated_by": patch.UpdatedBy}
		if patch.ApplicantName != nil {
			updates["applicant_name"] = titleCaser.String(strings.Join(strings.Fields(*patch.ApplicantName), " "))
		}
		if patch.CustomerType != nil {
			updates["customer_type"] = *patch.CustomerType
		}
		if patch.Address != nil {
			updates["address"] = strings.TrimSpace(*patch.Address)
		}
		optional := map[string]*string{
			"id_document_type":   patch.IDDocumentType,
			"id_document_number": patch.IDDocumentNumber,
			"phone":              patch.Phone,
			"mobile":             patch.Mobile,
			"email":              patch.Email,
			"city":               patch.City,
			"district":           patch.District,
			"postal_code":        patch.PostalCode,
		}
		for column, value := range optional {
			if value != nil {
				updates[column] = strings.TrimSpace(*value)
			}
		}
		if patch.Latitude != nil {
			updates["latitude"] = *patch.Latitude
		}
		if patch.Longitude != nil {
			updates["longitude"] = *patch.Longitude
		}

		return s.guardedUpdate(tx, "update", current, updates)
	})
}

// ApproveSubscriptionRequest sets the fees and moves the request to PENDING_PAYMENT.
// A request approved with all three fees explicitly zero is settled on the spot.
func (s *SubscriptionService) ApproveSubscriptionRequest(id uuid.UUID, input requests.ApproveSubscriptionRequest) (*models.SubscriptionRequest, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	for name, fee := range map[string]decimal.Decimal{
		"subscription_fee": *input.SubscriptionFee,
		"connection_fee":   *input.ConnectionFee,
		"deposit_amount":   *input.DepositAmount,
	} {
		if fee.IsNegative() {
			return nil, NewErrorf("%s must not be negative, got %s", name, fee).
				WithHint("Fees are zero or positive amounts").
				Mark(ErrInvalidAmount)
		}
	}

	return s.mutate("approve", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if current.Status != models.PendingReviewSubscription {
			return invalidState("approve", current.Status)
		}

		now := s.now()
		subscriptionFee := *input.SubscriptionFee
		connectionFee := *input.ConnectionFee
		depositAmount := *input.DepositAmount
		total := subscriptionFee.Add(connectionFee).Add(depositAmount)

		paymentStatus := DerivePaymentStatus(current.PaidAmount, total)
		status := models.PendingPaymentSubscription
		if paymentStatus == models.PaidPayment {
			status = models.PaymentReceivedSubscription
		}

		return s.guardedUpdate(tx, "approve", current, map[string]interface{}{
			"subscription_fee": subscriptionFee,
			"connection_fee":   connectionFee,
			"deposit_amount":   depositAmount,
			"total_amount":     total,
			"payment_status":   paymentStatus,
			"status":           status,
			"approval_date":    now,
			"approved_by":      input.ApprovedBy,
			"updated_by":       input.ApprovedBy,
			"notes":            appendNote(current.Notes, now, fmt.Sprintf("Approved by %s, total due %s", input.ApprovedBy, total.StringFixed(2))),
		})
	})
}

// RejectSubscriptionRequest closes a request that has not yet reached a terminal state.
func (s *SubscriptionService) RejectSubscriptionRequest(id uuid.UUID, input requests.RejectSubscriptionRequest) (*models.SubscriptionRequest, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	return s.mutate("reject", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if !canTransition(current.Status, models.RejectedSubscription) {
			return invalidState("reject", current.Status)
		}

		now := s.now()
		by := actor(input.RejectedBy)
		return s.guardedUpdate(tx, "reject", current, map[string]interface{}{
			"status":           models.RejectedSubscription,
			"rejection_reason": input.Reason,
			"updated_by":       by,
			"notes":            appendNote(current.Notes, now, fmt.Sprintf("Rejected by %s: %s", by, input.Reason)),
		})
	})
}

// CancelSubscriptionRequest withdraws a request. Cancelling twice fails with ErrInvalidState.
func (s *SubscriptionService) CancelSubscriptionRequest(id uuid.UUID, input requests.CancelSubscriptionRequest) (*models.SubscriptionRequest, error) {
	return s.mutate("cancel", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if !canTransition(current.Status, models.CancelledSubscription) {
			return invalidState("cancel", current.Status)
		}

		by := actor(input.CancelledBy)
		note := fmt.Sprintf("Cancelled by %s", by)
		if reason := strings.TrimSpace(input.Reason); reason != "" {
			note += ": " + reason
		}
		return s.guardedUpdate(tx, "cancel", current, map[string]interface{}{
			"status":     models.CancelledSubscription,
			"updated_by": by,
			"notes":      appendNote(current.Notes, s.now(), note),
		})
	})
}

// AssignTechnician books a technician on a fully paid request. Reassigning an ASSIGNED
// request replaces the technician and schedule.
func (s *SubscriptionService) AssignTechnician(id uuid.UUID, input requests.AssignTechnicianRequest) (*models.SubscriptionRequest, error) {
	input.TechnicianID = strings.TrimSpace(input.TechnicianID)
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	return s.mutate("assign", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if !awaitingInstallationStates.Contains(current.Status) && current.Status != models.AssignedSubscription {
			return invalidState("assign a technician to", current.Status)
		}
		if current.PaymentStatus != models.PaidPayment {
			return NewErrorf("request %s is not fully paid (payment status %s)", current.RequestNo, current.PaymentStatus).
				WithHintf("Outstanding balance is %s; collect it before assigning a technician", current.Outstanding().StringFixed(2)).
				Mark(ErrPaymentIncomplete)
		}

		by := actor(input.AssignedBy)
		updates := map[string]interface{}{
			"status":              models.AssignedSubscription,
			"assigned_technician": input.TechnicianID,
			"updated_by":          by,
		}
		note := fmt.Sprintf("Technician %s assigned by %s", input.TechnicianID, by)
		if input.ScheduledDate != nil && !input.ScheduledDate.IsZero() {
			updates["installation_date"] = datatypes.Date(input.ScheduledDate.Time())
			note += ", installation scheduled for " + input.ScheduledDate.Time().Format("2006-01-02")
		}
		if input.MeterSerialNumber != nil && strings.TrimSpace(*input.MeterSerialNumber) != "" {
			updates["meter_serial_number"] = strings.TrimSpace(*input.MeterSerialNumber)
		}
		updates["notes"] = appendNote(current.Notes, s.now(), note)

		return s.guardedUpdate(tx, "assign", current, updates)
	})
}

// StartInstallation marks an assigned request as being installed.
func (s *SubscriptionService) StartInstallation(id uuid.UUID, input requests.StartInstallationRequest) (*models.SubscriptionRequest, error) {
	return s.mutate("start_installation", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if !canTransition(current.Status, models.InProgressSubscription) {
			return invalidState("start installation of", current.Status)
		}

		by := actor(input.StartedBy)
		return s.guardedUpdate(tx, "start_installation", current, map[string]interface{}{
			"status":     models.InProgressSubscription,
			"updated_by": by,
			"notes":      appendNote(current.Notes, s.now(), "Installation started by "+by),
		})
	})
}
