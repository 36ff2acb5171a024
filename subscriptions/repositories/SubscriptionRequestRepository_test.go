package repositories

import (
	"testing"
	"time"
	"utility-billing-backend/db/models"
	"utility-billing-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var payable = []models.SubscriptionStatus{models.PendingPaymentSubscription}

func pendingPaymentRequest(t *testing.T, db *gorm.DB, repo SubscriptionRequestRepository, total int64) *models.SubscriptionRequest {
	t.Helper()
	totalAmount := decimal.NewFromInt(total)
	request, err := repo.CreateSubscriptionRequest(db, &models.SubscriptionRequest{
		RequestNo:     "SR-2026-000001",
		ApplicantName: "Jane Mwale",
		CustomerType:  models.ResidentialCustomer,
		Address:       "12 Lake Road",
		TotalAmount:   &totalAmount,
		PaymentStatus: models.PendingPayment,
		Status:        models.PendingPaymentSubscription,
		CreatedBy:     "clerk-1",
	})
	require.NoError(t, err)
	return request
}

func TestIncrementPaidAmount_AddsInTheDatabase(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRequestRepository(db)
	request := pendingPaymentRequest(t, db, repo, 2000)

	// both postings are issued from the same unlocked snapshot of paid_amount = 0
	stale, err := repo.GetSubscriptionRequestByID(db, request.ID)
	require.NoError(t, err)
	assert.True(t, stale.PaidAmount.IsZero())

	for _, amount := range []int64{1500, 500} {
		rows, err := repo.IncrementPaidAmount(db, request.ID, payable, PaymentPosting{
			Amount: decimal.NewFromInt(amount),
			PaidAt: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	}

	current, err := repo.GetSubscriptionRequestByID(db, request.ID)
	require.NoError(t, err)
	assert.True(t, current.PaidAmount.Equal(decimal.NewFromInt(2000)), "got %s", current.PaidAmount)
}

func TestIncrementPaidAmount_RefusesToPassTheTotal(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRequestRepository(db)
	request := pendingPaymentRequest(t, db, repo, 2000)

	rows, err := repo.IncrementPaidAmount(db, request.ID, payable, PaymentPosting{
		Amount: decimal.NewFromInt(1500),
		PaidAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.IncrementPaidAmount(db, request.ID, payable, PaymentPosting{
		Amount: decimal.NewFromInt(1000),
		PaidAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	current, err := repo.GetSubscriptionRequestByID(db, request.ID)
	require.NoError(t, err)
	assert.True(t, current.PaidAmount.Equal(decimal.NewFromInt(1500)), "got %s", current.PaidAmount)

	rows, err = repo.IncrementPaidAmount(db, request.ID, []models.SubscriptionStatus{models.AssignedSubscription}, PaymentPosting{
		Amount: decimal.NewFromInt(100),
		PaidAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "postings only land on a payable status")
}
