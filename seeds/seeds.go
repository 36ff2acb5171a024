package seeds

import (
	"errors"
	"fmt"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/numbering"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedBillingReferenceData seeds everything provisioning needs to run.
func SeedBillingReferenceData(db *gorm.DB) error {
	if err := SeedCustomerCategories(db); err != nil {
		return err
	}
	if err := SeedMeterTypes(db); err != nil {
		return err
	}
	return SeedNumberSequences(db)
}

// SeedCustomerCategories seeds one category per customer type code.
func SeedCustomerCategories(db *gorm.DB) error {
	config.Logger.Info("Starting customer category seeding...")

	categories := []models.CustomerCategory{
		{Code: "RES", Name: "Residential", Description: "Households and private dwellings", IsActive: true, CreatedBy: "system"},
		{Code: "COM", Name: "Commercial", Description: "Shops, offices and other businesses", IsActive: true, CreatedBy: "system"},
		{Code: "IND", Name: "Industrial", Description: "Factories and processing plants", IsActive: true, CreatedBy: "system"},
		{Code: "AGR", Name: "Agricultural", Description: "Farms and irrigation schemes", IsActive: true, CreatedBy: "system"},
		{Code: "GOV", Name: "Governmental", Description: "Government departments and institutions", IsActive: true, CreatedBy: "system"},
	}

	createdCount := 0
	for _, category := range categories {
		var existing models.CustomerCategory
		result := db.Where("code = ?", category.Code).First(&existing)
		if result.Error == nil {
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			config.Logger.Error("Error checking for existing customer category",
				zap.String("code", category.Code),
				zap.Error(result.Error))
			return fmt.Errorf("failed to check category %s: %w", category.Code, result.Error)
		}
		if err := db.Create(&category).Error; err != nil {
			config.Logger.Error("Failed to create customer category",
				zap.String("code", category.Code),
				zap.Error(err))
			return fmt.Errorf("failed to create category %s: %w", category.Code, err)
		}
		createdCount++
	}

	config.Logger.Info("Customer category seeding completed", zap.Int("created", createdCount))
	return nil
}

// SeedMeterTypes seeds the meter models; STD-15 is the default installed on new connections.
func SeedMeterTypes(db *gorm.DB) error {
	meterTypes := []models.MeterType{
		{Code: "STD-15", Name: "Standard 15mm", Description: "Domestic volumetric meter", IsDefault: true, IsActive: true, CreatedBy: "system"},
		{Code: "BLK-50", Name: "Bulk 50mm", Description: "Bulk meter for large consumers", IsActive: true, CreatedBy: "system"},
		{Code: "PRE-15", Name: "Prepaid 15mm", Description: "Prepaid smart meter", IsActive: true, CreatedBy: "system"},
	}

	for _, mt := range meterTypes {
		var existing models.MeterType
		if err := db.Where("code = ?", mt.Code).First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check meter type %s: %w", mt.Code, err)
			}
			if err := db.Create(&mt).Error; err != nil {
				config.Logger.Error("Failed to create meter type", zap.String("code", mt.Code), zap.Error(err))
				return fmt.Errorf("failed to create meter type %s: %w", mt.Code, err)
			}
		}
	}
	return nil
}

// SeedNumberSequences registers the counters used by the subscription workflow.
func SeedNumberSequences(db *gorm.DB) error {
	for _, seq := range numbering.DefaultSequences {
		var existing models.NumberSequence
		if err := db.Where("name = ?", seq.Name).First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check number sequence %s: %w", seq.Name, err)
			}
			if err := db.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence %s: %w", seq.Name, err)
			}
		}
	}
	return nil
}
