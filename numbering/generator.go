// Package numbering issues human-readable sequence numbers such as request and account
// numbers from counters stored in the number_sequences table.
package numbering

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SubscriptionRequestCounter = "subscription_request"
	CustomerAccountCounter     = "customer_account"
)

// Generator hands out the next number of a named counter. The number is reserved inside
// tx, so it is released again if tx rolls back.
type Generator interface {
	NextNumber(tx *gorm.DB, counterName string) (string, error)
}

// DefaultSequences are created on first use when a counter has not been seeded.
var DefaultSequences = map[string]models.NumberSequence{
	SubscriptionRequestCounter: {Name: SubscriptionRequestCounter, Prefix: "SR", Padding: 6, ResetPeriod: models.YearlyReset},
	CustomerAccountCounter:     {Name: CustomerAccountCounter, Prefix: "ACC", Padding: 8, ResetPeriod: models.NeverReset},
}

type SequenceGenerator struct {
	now func() time.Time
}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{now: time.Now}
}

// WithClock returns a copy of the generator that reads the time from now.
func (g *SequenceGenerator) WithClock(now func() time.Time) *SequenceGenerator {
	return &SequenceGenerator{now: now}
}

func (g *SequenceGenerator) NextNumber(tx *gorm.DB, counterName string) (string, error) {
	if tx == nil {
		return "", errors.New("number generation requires a transaction")
	}
	counterName = strings.TrimSpace(counterName)
	if counterName == "" {
		return "", errors.New("counter name is required")
	}

	seed := defaultSequence(counterName)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return "", fmt.Errorf("failed to initialise counter %s: %w", counterName, err)
	}

	var sequence models.NumberSequence
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", counterName).
		First(&sequence).Error; err != nil {
		return "", fmt.Errorf("failed to lock counter %s: %w", counterName, err)
	}

	periodKey := PeriodKey(sequence.ResetPeriod, g.now())
	next := sequence.CurrentValue + 1
	if sequence.PeriodKey != periodKey {
		config.Logger.Info("Resetting number sequence for new period",
			zap.String("counter", counterName),
			zap.String("previousPeriod", sequence.PeriodKey),
			zap.String("period", periodKey))
		next = 1
	}

	if err := tx.Model(&models.NumberSequence{}).
		Where("id = ?", sequence.ID).
		Updates(map[string]interface{}{
			"current_value": next,
			"period_key":    periodKey,
		}).Error; err != nil {
		return "", fmt.Errorf("failed to advance counter %s: %w", counterName, err)
	}

	return Format(sequence.Prefix, periodKey, sequence.Padding, next), nil
}

// PeriodKey is the bucket a counter value belongs to: "2026" for yearly counters,
// "202610" for monthly ones and "" for counters that never reset.
func PeriodKey(period models.ResetPeriod, at time.Time) string {
	switch period {
	case models.YearlyReset:
		return at.Format("2006")
	case models.MonthlyReset:
		return at.Format("200601")
	default:
		return ""
	}
}

// Format renders e.g. SR-2026-000042 or ACC-00000042.
func Format(prefix, periodKey string, padding int, value int64) string {
	if padding <= 0 {
		padding = 1
	}
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if periodKey != "" {
		parts = append(parts, periodKey)
	}
	parts = append(parts, fmt.Sprintf("%0*d", padding, value))
	return strings.Join(parts, "-")
}

func defaultSequence(counterName string) models.NumberSequence {
	if seq, ok := DefaultSequences[counterName]; ok {
		return seq
	}
	return models.NumberSequence{
		Name:        counterName,
		Prefix:      strings.ToUpper(counterName),
		Padding:     6,
		ResetPeriod: models.NeverReset,
	}
}
