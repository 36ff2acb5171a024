package services

import (
	"slices"
	"utility-billing-backend/db/models"

	"github.com/shopspring/decimal"
)

type statusSet []models.SubscriptionStatus

func (s statusSet) Contains(status models.SubscriptionStatus) bool {
	return slices.Contains(s, status)
}

var (
	terminalStates = statusSet{
		models.CompletedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	}

	// awaitingInstallationStates are the approved-but-not-yet-assigned states. Legacy rows
	// carry APPROVED, which stands for either of the other two.
	awaitingInstallationStates = statusSet{
		models.ApprovedSubscription,
		models.PendingPaymentSubscription,
		models.PaymentReceivedSubscription,
	}

	// paymentAdvanceStates move to PAYMENT_RECEIVED once fully paid; later states stay put.
	paymentAdvanceStates = statusSet{
		models.ApprovedSubscription,
		models.PendingPaymentSubscription,
	}

	payableStates = statusSet{
		models.ApprovedSubscription,
		models.PendingPaymentSubscription,
		models.PaymentReceivedSubscription,
		models.AssignedSubscription,
		models.InProgressSubscription,
	}
)

var subscriptionTransitions = map[models.SubscriptionStatus]statusSet{
	models.PendingReviewSubscription: {
		models.PendingPaymentSubscription,
		models.PaymentReceivedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
	models.PendingPaymentSubscription: {
		models.PaymentReceivedSubscription,
		models.AssignedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
	models.ApprovedSubscription: {
		models.PaymentReceivedSubscription,
		models.AssignedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
	models.PaymentReceivedSubscription: {
		models.AssignedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
	models.AssignedSubscription: {
		models.AssignedSubscription,
		models.InProgressSubscription,
		models.CompletedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
	models.InProgressSubscription: {
		models.CompletedSubscription,
		models.RejectedSubscription,
		models.CancelledSubscription,
	},
}

// canTransition reports whether the workflow allows moving from current to target.
// Terminal states have no entry, so nothing leaves them.
func canTransition(current, target models.SubscriptionStatus) bool {
	next, ok := subscriptionTransitions[current]
	if !ok {
		return false
	}
	return next.Contains(target)
}

func IsTerminal(status models.SubscriptionStatus) bool {
	return terminalStates.Contains(status)
}

// DerivePaymentStatus classifies how much of total has been collected.
func DerivePaymentStatus(paid, total decimal.Decimal) models.PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.PaidPayment
	case paid.IsPositive():
		return models.PartialPayment
	default:
		return models.PendingPayment
	}
}
