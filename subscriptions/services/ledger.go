package services

import (
	"strings"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/subscriptions/repositories"
	"utility-billing-backend/subscriptions/requests"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordPayment posts a payment against an approved request. The amount is added by the
// database, the payment status is recomputed from the stored result in the same
// transaction, and a fully paid request waiting for payment moves to PAYMENT_RECEIVED.
// Payments that would exceed the total are refused.
func (s *SubscriptionService) RecordPayment(id uuid.UUID, input requests.RecordPaymentRequest) (*models.SubscriptionRequest, *models.SubscriptionPayment, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, nil, NewErrorf("payment amount must be greater than zero, got %s", input.Amount).
			WithHint("Enter the amount received").
			Mark(ErrInvalidAmount)
	}

	var payment *models.SubscriptionPayment
	updated, err := s.mutate("record_payment", id, func(tx *gorm.DB, current *models.SubscriptionRequest) error {
		if current.TotalAmount == nil || !payableStates.Contains(current.Status) {
			return invalidState("record a payment for", current.Status)
		}
		outstanding := current.Outstanding()
		if input.Amount.GreaterThan(outstanding) {
			return NewErrorf("payment of %s exceeds the outstanding balance of %s", input.Amount.StringFixed(2), outstanding.StringFixed(2)).
				WithHintf("At most %s can be accepted for request %s", outstanding.StringFixed(2), current.RequestNo).
				Mark(ErrInvalidAmount)
		}

		now := s.now()
		rows, err := s.Requests.IncrementPaidAmount(tx, current.ID, statusSet{current.Status}, repositories.PaymentPosting{
			Amount:    input.Amount,
			Reference: trimmed(input.Reference),
			PaidAt:    now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return conflict("record a payment")
		}

		posted, err := s.Requests.GetSubscriptionRequestByID(tx, current.ID)
		if err != nil {
			return err
		}

		paymentStatus := DerivePaymentStatus(posted.PaidAmount, *posted.TotalAmount)
		updates := map[string]interface{}{"payment_status": paymentStatus}
		if paymentStatus == models.PaidPayment && paymentAdvanceStates.Contains(posted.Status) {
			updates["status"] = models.PaymentReceivedSubscription
		}
		if err := s.guardedUpdate(tx, "record a payment", posted, updates); err != nil {
			return err
		}

		payment = &models.SubscriptionPayment{
			SubscriptionRequestID: current.ID,
			Amount:                input.Amount,
			PaidTotal:             posted.PaidAmount,
			BalanceAfter:          posted.TotalAmount.Sub(posted.PaidAmount),
			Reference:             trimmed(input.Reference),
			PaidAt:                now,
			CreatedBy:             actor(input.ReceivedBy),
		}
		if input.Notes != nil {
			payment.Notes = strings.TrimSpace(*input.Notes)
		}
		return s.Requests.CreateSubscriptionPayment(tx, payment)
	})
	if err != nil {
		return nil, nil, err
	}

	s.Metrics.ObservePayment(string(updated.PaymentStatus), input.Amount.InexactFloat64())
	config.Logger.Info("Subscription payment recorded",
		zap.String("requestID", updated.ID.String()),
		zap.String("requestNo", updated.RequestNo),
		zap.String("amount", input.Amount.StringFixed(2)),
		zap.String("paidAmount", updated.PaidAmount.StringFixed(2)),
		zap.String("paymentStatus", string(updated.PaymentStatus)))
	return updated, payment, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
