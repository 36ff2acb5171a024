package config

import (
	"fmt"
	"log"
	"time"
	"utility-billing-backend/db/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AllModels defines all models that should be migrated.
// This is the only place you need to add new models
var AllModels = []interface{}{
	// Number sequences
	&models.NumberSequence{},

	// Reference data used by provisioning
	&models.CustomerCategory{},
	&models.MeterType{},

	// Subscription workflow
	&models.SubscriptionRequest{},
	&models.SubscriptionPayment{},

	// Provisioned accounts
	&models.Customer{},
	&models.Meter{},
	&models.MeterReading{},
}

func ConfigureDatabase() *gorm.DB {
	host := GetEnv("DB_HOST")
	user := GetEnv("POSTGRES_USER")
	password := GetEnv("POSTGRES_PASSWORD")
	dbname := GetEnv("POSTGRES_DB")
	port := GetEnv("DB_PORT")
	timezone := GetEnvOrDefault("DB_TIMEZONE", "Africa/Harare")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		host, user, password, dbname, port, timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("[DB-CONNECT] Failed to connect to database: %v", err)
	}

	if err := MigrateDatabase(db); err != nil {
		log.Fatalf("failed to migrate tables: %v", err)
	}
	log.Println("Tables migrated successfully")

	if err := CreateProvisionedCustomerIndex(db); err != nil {
		log.Fatalf("[DB-MIGRATE] Failed to create provisioned customer index: %v", err)
	}

	// Connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[DB-POOL] Failed to get underlying DB connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	log.Println("[DB-POOL] Connection pool configured")
	log.Println("[DB-STATUS] Database setup complete")
	return db
}

// MigrateDatabase auto-migrates every model in AllModels.
func MigrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(AllModels...)
}
