package services

import (
	"testing"
	"utility-billing-backend/db/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		current models.SubscriptionStatus
		target  models.SubscriptionStatus
		want    bool
	}{
		{"review to payment", models.PendingReviewSubscription, models.PendingPaymentSubscription, true},
		{"payment to received", models.PendingPaymentSubscription, models.PaymentReceivedSubscription, true},
		{"legacy approved to assigned", models.ApprovedSubscription, models.AssignedSubscription, true},
		{"reassign", models.AssignedSubscription, models.AssignedSubscription, true},
		{"assigned to in progress", models.AssignedSubscription, models.InProgressSubscription, true},
		{"in progress to completed", models.InProgressSubscription, models.CompletedSubscription, true},
		{"received cannot start installation", models.PaymentReceivedSubscription, models.InProgressSubscription, false},
		{"review cannot complete", models.PendingReviewSubscription, models.CompletedSubscription, false},
		{"reject in progress", models.InProgressSubscription, models.RejectedSubscription, true},
		{"completed is terminal", models.CompletedSubscription, models.CancelledSubscription, false},
		{"cancelled is terminal", models.CancelledSubscription, models.CancelledSubscription, false},
		{"rejected is terminal", models.RejectedSubscription, models.CancelledSubscription, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.current, tt.target))
		})
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	for _, status := range terminalStates {
		assert.True(t, IsTerminal(status))
		_, ok := subscriptionTransitions[status]
		assert.False(t, ok, "%s must not have outgoing transitions", status)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	total := decimal.NewFromInt(2000)

	assert.Equal(t, models.PendingPayment, DerivePaymentStatus(decimal.Zero, total))
	assert.Equal(t, models.PartialPayment, DerivePaymentStatus(decimal.NewFromInt(1), total))
	assert.Equal(t, models.PartialPayment, DerivePaymentStatus(decimal.RequireFromString("1999.99"), total))
	assert.Equal(t, models.PaidPayment, DerivePaymentStatus(total, total))
	assert.Equal(t, models.PaidPayment, DerivePaymentStatus(decimal.Zero, decimal.Zero))
}
