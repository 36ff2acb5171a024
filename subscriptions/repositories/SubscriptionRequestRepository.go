package repositories

import (
	"fmt"
	"strings"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRequestRepository interface {
	CreateSubscriptionRequest(tx *gorm.DB, request *models.SubscriptionRequest) (*models.SubscriptionRequest, error)
	GetSubscriptionRequestByID(tx *gorm.DB, id uuid.UUID) (*models.SubscriptionRequest, error)
	LockSubscriptionRequest(tx *gorm.DB, id uuid.UUID) (*models.SubscriptionRequest, error)
	UpdateSubscriptionRequestGuarded(tx *gorm.DB, id uuid.UUID, expected []models.SubscriptionStatus, updates map[string]interface{}) (int64, error)
	IncrementPaidAmount(tx *gorm.DB, id uuid.UUID, payable []models.SubscriptionStatus, payment PaymentPosting) (int64, error)
	CreateSubscriptionPayment(tx *gorm.DB, payment *models.SubscriptionPayment) error
	GetSubscriptionPayments(requestID uuid.UUID) ([]models.SubscriptionPayment, error)
	GetFilteredSubscriptionRequests(limit, offset int, filters map[string]string) ([]models.SubscriptionRequest, int64, error)
	GetSubscriptionRequestsByIDs(ids []uuid.UUID) ([]models.SubscriptionRequest, error)
	GetSubscriptionStatistics() (*SubscriptionStatistics, error)
}

// PaymentPosting is one payment to add onto a request's paid amount.
type PaymentPosting struct {
	Amount    decimal.Decimal
	Reference *string
	PaidAt    time.Time
}

type subscriptionRequestRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRequestRepository(db *gorm.DB) SubscriptionRequestRepository {
	return &subscriptionRequestRepository{DB: db}
}

func (r *subscriptionRequestRepository) CreateSubscriptionRequest(tx *gorm.DB, request *models.SubscriptionRequest) (*models.SubscriptionRequest, error) {
	if err := tx.Create(request).Error; err != nil {
		config.Logger.Error("Failed to create subscription request",
			zap.Error(err),
			zap.String("requestNo", request.RequestNo))
		return nil, fmt.Errorf("failed to create subscription request: %w", err)
	}
	return request, nil
}

// GetSubscriptionRequestByID reads through tx, or through the repository's DB when tx is nil.
func (r *subscriptionRequestRepository) GetSubscriptionRequestByID(tx *gorm.DB, id uuid.UUID) (*models.SubscriptionRequest, error) {
	if tx == nil {
		tx = r.DB
	}
	var request models.SubscriptionRequest
	if err := tx.Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// LockSubscriptionRequest reads the row with SELECT ... FOR UPDATE; the lock is held until tx ends.
func (r *subscriptionRequestRepository) LockSubscriptionRequest(tx *gorm.DB, id uuid.UUID) (*models.SubscriptionRequest, error) {
	var request models.SubscriptionRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateSubscriptionRequestGuarded applies updates only while the row is still in one of the
// expected statuses and reports how many rows changed. Zero means another writer got there first.
func (r *subscriptionRequestRepository) UpdateSubscriptionRequestGuarded(
	tx *gorm.DB,
	id uuid.UUID,
	expected []models.SubscriptionStatus,
	updates map[string]interface{},
) (int64, error) {
	result := tx.Model(&models.SubscriptionRequest{}).
		Where("id = ? AND status IN ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		config.Logger.Error("Failed to update subscription request",
			zap.Error(result.Error),
			zap.String("requestID", id.String()))
		return 0, fmt.Errorf("failed to update subscription request: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// IncrementPaidAmount adds the payment in the database itself, so concurrent postings add up
// instead of overwriting each other. The guard refuses postings past the total.
func (r *subscriptionRequestRepository) IncrementPaidAmount(
	tx *gorm.DB,
	id uuid.UUID,
	payable []models.SubscriptionStatus,
	payment PaymentPosting,
) (int64, error) {
	updates := map[string]interface{}{
		"paid_amount":  gorm.Expr("paid_amount + ?", payment.Amount),
		"payment_date": payment.PaidAt,
	}
	if payment.Reference != nil {
		updates["payment_reference"] = *payment.Reference
	}

	result := tx.Model(&models.SubscriptionRequest{}).
		Where("id = ? AND status IN ? AND total_amount IS NOT NULL AND paid_amount + ? <= total_amount",
			id, payable, payment.Amount).
		Updates(updates)
	if result.Error != nil {
		config.Logger.Error("Failed to increment paid amount",
			zap.Error(result.Error),
			zap.String("requestID", id.String()),
			zap.String("amount", payment.Amount.String()))
		return 0, fmt.Errorf("failed to record payment amount: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRequestRepository) CreateSubscriptionPayment(tx *gorm.DB, payment *models.SubscriptionPayment) error {
	if err := tx.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *subscriptionRequestRepository) GetSubscriptionPayments(requestID uuid.UUID) ([]models.SubscriptionPayment, error) {
	var payments []models.SubscriptionPayment
	if err := r.DB.Where("subscription_request_id = ?", requestID).
		Order("paid_at ASC, created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return payments, nil
}

// GetFilteredSubscriptionRequests supports the filters status, payment_status, customer_type,
// city, request_no, applicant_name, date_from and date_to (inclusive, "2006-01-02").
func (r *subscriptionRequestRepository) GetFilteredSubscriptionRequests(limit, offset int, filters map[string]string) ([]models.SubscriptionRequest, int64, error) {
	var requests []models.SubscriptionRequest
	var total int64

	query, err := applySubscriptionFilters(r.DB.Model(&models.SubscriptionRequest{}), filters)
	if err != nil {
		return nil, 0, err
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscription requests: %w", err)
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get subscription requests: %w", err)
	}

	return requests, total, nil
}

func (r *subscriptionRequestRepository) GetSubscriptionRequestsByIDs(ids []uuid.UUID) ([]models.SubscriptionRequest, error) {
	var requests []models.SubscriptionRequest
	if len(ids) == 0 {
		return requests, nil
	}
	if err := r.DB.Where("id IN ?", ids).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to get subscription requests: %w", err)
	}

	// keep the caller's order, which is the search relevance order
	byID := make(map[uuid.UUID]models.SubscriptionRequest, len(requests))
	for _, request := range requests {
		byID[request.ID] = request
	}
	ordered := make([]models.SubscriptionRequest, 0, len(requests))
	for _, id := range ids {
		if request, ok := byID[id]; ok {
			ordered = append(ordered, request)
		}
	}
	return ordered, nil
}

func applySubscriptionFilters(query *gorm.DB, filters map[string]string) (*gorm.DB, error) {
	for key, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "status":
			query = query.Where("status = ?", strings.ToUpper(value))
		case "payment_status":
			query = query.Where("payment_status = ?", strings.ToUpper(value))
		case "customer_type":
			query = query.Where("customer_type = ?", strings.ToLower(value))
		case "city":
			query = query.Where("LOWER(city) = ?", strings.ToLower(value))
		case "request_no":
			query = query.Where("request_no LIKE ?", "%"+strings.ToUpper(value)+"%")
		case "applicant_name":
			query = query.Where("LOWER(applicant_name) LIKE ?", "%"+strings.ToLower(value)+"%")
		case "date_from":
			from, err := utils.ParseDateOnly(value)
			if err != nil {
				return nil, fmt.Errorf("invalid date_from %q: %w", value, err)
			}
			query = query.Where("created_at >= ?", from)
		case "date_to":
			to, err := utils.ParseDateOnly(value)
			if err != nil {
				return nil, fmt.Errorf("invalid date_to %q: %w", value, err)
			}
			query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}
	return query, nil
}
