package bootstrap

import (
	"testing"
	"utility-billing-backend/bleve/repositories"
	bleveindex "utility-billing-backend/bleve/services"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/internal/testutil"
	subscription_repositories "utility-billing-backend/subscriptions/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexBleveData(t *testing.T) {
	db := testutil.NewTestDB(t)
	for i, name := range []string{"Jane Mwale", "Peter Banda", "Mary Phiri"} {
		require.NoError(t, db.Create(&models.SubscriptionRequest{
			RequestNo:     []string{"SR-2026-000001", "SR-2026-000002", "SR-2026-000003"}[i],
			ApplicantName: name,
			CustomerType:  models.ResidentialCustomer,
			Address:       "Plot 1",
			Status:        models.PendingReviewSubscription,
			PaymentStatus: models.PendingPayment,
			CreatedBy:     "seed",
		}).Error)
	}

	indexer := bleveindex.NewIndexingService(config.Logger, "")
	t.Cleanup(func() { _ = indexer.Close() })
	_, bleveRepo := repositories.NewBleveRepository(indexer)

	// a stale entry from before the rebuild must not survive it
	require.NoError(t, bleveRepo.IndexSubscriptionRequest(models.SubscriptionRequest{
		RequestNo:     "SR-2025-000099",
		ApplicantName: "Stale Entry",
	}))

	indexed, err := IndexBleveData(subscription_repositories.NewSubscriptionRequestRepository(db), bleveRepo)
	require.NoError(t, err)
	assert.Equal(t, 3, indexed)

	ids, err := bleveRepo.SearchSubscriptionRequests("banda", "", 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	ids, err = bleveRepo.SearchSubscriptionRequests("stale", "", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
