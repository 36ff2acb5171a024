package config

import "gorm.io/gorm"

// CreateProvisionedCustomerIndex makes sure a subscription request can be provisioned
// into at most one live customer. Soft-deleted customers keep their link for history,
// so the index only covers rows that are not deleted.
func CreateProvisionedCustomerIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_subscription_request_id_active
		ON customers (subscription_request_id)
		WHERE subscription_request_id IS NOT NULL AND deleted_at IS NULL;
	`).Error
}
