package repositories

import (
	"fmt"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProvisioningRepository reads the billing reference data and writes the records that make
// a request a billable customer. The writes only ever run inside the completion transaction.
type ProvisioningRepository interface {
	FindCustomerCategoryByCode(code string) (*models.CustomerCategory, error)
	FindDefaultMeterType() (*models.MeterType, error)
	CreateCustomer(tx *gorm.DB, customer *models.Customer) error
	CreateMeter(tx *gorm.DB, meter *models.Meter) error
	CreateMeterReading(tx *gorm.DB, reading *models.MeterReading) error
	GetCustomerBySubscriptionRequest(tx *gorm.DB, requestID uuid.UUID) (*models.Customer, error)
}

type provisioningRepository struct {
	DB *gorm.DB
}

func NewProvisioningRepository(db *gorm.DB) ProvisioningRepository {
	return &provisioningRepository{DB: db}
}

func (r *provisioningRepository) FindCustomerCategoryByCode(code string) (*models.CustomerCategory, error) {
	var category models.CustomerCategory
	if err := r.DB.Where("code = ? AND is_active = ?", code, true).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindDefaultMeterType prefers the meter type flagged as default and falls back to any active one.
func (r *provisioningRepository) FindDefaultMeterType() (*models.MeterType, error) {
	var meterType models.MeterType
	if err := r.DB.Where("is_active = ?", true).
		Order("is_default DESC, created_at ASC").
		First(&meterType).Error; err != nil {
		return nil, err
	}
	return &meterType, nil
}

func (r *provisioningRepository) CreateCustomer(tx *gorm.DB, customer *models.Customer) error {
	if err := tx.Omit("Category", "Meters").Create(customer).Error; err != nil {
		config.Logger.Error("Failed to create customer",
			zap.Error(err),
			zap.String("accountNo", customer.AccountNo))
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *provisioningRepository) CreateMeter(tx *gorm.DB, meter *models.Meter) error {
	if err := tx.Omit("MeterType").Create(meter).Error; err != nil {
		config.Logger.Error("Failed to create meter",
			zap.Error(err),
			zap.String("serialNumber", meter.SerialNumber))
		return fmt.Errorf("failed to create meter: %w", err)
	}
	return nil
}

func (r *provisioningRepository) CreateMeterReading(tx *gorm.DB, reading *models.MeterReading) error {
	if err := tx.Create(reading).Error; err != nil {
		config.Logger.Error("Failed to create initial meter reading",
			zap.Error(err),
			zap.String("meterID", reading.MeterID.String()))
		return fmt.Errorf("failed to create meter reading: %w", err)
	}
	return nil
}

func (r *provisioningRepository) GetCustomerBySubscriptionRequest(tx *gorm.DB, requestID uuid.UUID) (*models.Customer, error) {
	if tx == nil {
		tx = r.DB
	}
	var customer models.Customer
	if err := tx.Preload("Category").Preload("Meters.MeterType").
		Where("subscription_request_id = ?", requestID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
