package repositories

import (
	"fmt"
	"utility-billing-backend/db/models"

	"github.com/shopspring/decimal"
)

// SubscriptionStatistics is the dashboard summary of the request book.
type SubscriptionStatistics struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	ByPaymentStatus    map[string]int64 `json:"by_payment_status"`
	ByCustomerType     map[string]int64 `json:"by_customer_type"`
	TotalBilled        decimal.Decimal  `json:"total_billed"`
	TotalCollected     decimal.Decimal  `json:"total_collected"`
	TotalOutstanding   decimal.Decimal  `json:"total_outstanding"`
	AwaitingAssignment int64            `json:"awaiting_assignment"`
}

type bucketCount struct {
	Bucket string
	Count  int64
}

type moneyTotals struct {
	Billed    decimal.Decimal
	Collected decimal.Decimal
}

func (r *subscriptionRequestRepository) GetSubscriptionStatistics() (*SubscriptionStatistics, error) {
	stats := &SubscriptionStatistics{
		ByStatus:        map[string]int64{},
		ByPaymentStatus: map[string]int64{},
		ByCustomerType:  map[string]int64{},
	}

	if err := r.DB.Model(&models.SubscriptionRequest{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscription requests: %w", err)
	}

	groupings := []struct {
		column string
		target map[string]int64
	}{
		{"status", stats.ByStatus},
		{"payment_status", stats.ByPaymentStatus},
		{"customer_type", stats.ByCustomerType},
	}
	for _, g := range groupings {
		var rows []bucketCount
		if err := r.DB.Model(&models.SubscriptionRequest{}).
			Select(g.column + " AS bucket, COUNT(*) AS count").
			Group(g.column).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to group subscription requests by %s: %w", g.column, err)
		}
		for _, row := range rows {
			g.target[row.Bucket] = row.Count
		}
	}

	var totals moneyTotals
	if err := r.DB.Model(&models.SubscriptionRequest{}).
		Select("COALESCE(SUM(total_amount), 0) AS billed, COALESCE(SUM(paid_amount), 0) AS collected").
		Where("status NOT IN ?", []models.SubscriptionStatus{models.RejectedSubscription, models.CancelledSubscription}).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to total subscription fees: %w", err)
	}
	stats.TotalBilled = totals.Billed
	stats.TotalCollected = totals.Collected
	stats.TotalOutstanding = totals.Billed.Sub(totals.Collected)

	if err := r.DB.Model(&models.SubscriptionRequest{}).
		Where("status IN ? AND payment_status = ?",
			[]models.SubscriptionStatus{models.PaymentReceivedSubscription, models.ApprovedSubscription},
			models.PaidPayment).
		Count(&stats.AwaitingAssignment).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests awaiting assignment: %w", err)
	}

	return stats, nil
}
