package bootstrap

import (
	bleveRepositories "utility-billing-backend/bleve/repositories"
	"utility-billing-backend/config"
	"utility-billing-backend/subscriptions/repositories"

	"go.uber.org/zap"
)

const reindexBatchSize = 500

// IndexBleveData rebuilds the subscription request index from the database, one page at a
// time. It returns the number of requests indexed.
func IndexBleveData(
	requestRepo repositories.SubscriptionRequestRepository,
	bleveRepo bleveRepositories.BleveRepositoryInterface,
) (int, error) {
	if err := bleveRepo.ResetSubscriptionRequestIndex(); err != nil {
		config.Logger.Error("Error resetting subscription request index", zap.Error(err))
		return 0, err
	}

	indexed := 0
	for offset := 0; ; offset += reindexBatchSize {
		batch, _, err := requestRepo.GetFilteredSubscriptionRequests(reindexBatchSize, offset, nil)
		if err != nil {
			config.Logger.Error("Error fetching subscription requests for Bleve indexing",
				zap.Int("offset", offset),
				zap.Error(err))
			return indexed, err
		}
		if len(batch) == 0 {
			break
		}
		if err := bleveRepo.IndexExistingSubscriptionRequests(batch); err != nil {
			config.Logger.Error("Failed to index subscription requests into Bleve",
				zap.Int("offset", offset),
				zap.Error(err))
			return indexed, err
		}
		indexed += len(batch)
		if len(batch) < reindexBatchSize {
			break
		}
	}

	config.Logger.Info("Subscription request index rebuilt", zap.Int("indexed", indexed))
	return indexed, nil
}
