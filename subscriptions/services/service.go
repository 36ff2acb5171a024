package services

import (
	"fmt"
	"strings"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/numbering"
	"utility-billing-backend/observability"
	"utility-billing-backend/subscriptions/repositories"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubscriptionService runs the subscription workflow: the lifecycle transitions, the payment
// ledger and the provisioning step. Every mutation locks the request row, checks the
// precondition against what it read and writes with a status guard in the same transaction.
type SubscriptionService struct {
	DB           *gorm.DB
	Requests     repositories.SubscriptionRequestRepository
	Provisioning repositories.ProvisioningRepository
	Numbers      numbering.Generator
	Metrics      *observability.Metrics

	validate *validator.Validate
	now      func() time.Time
}

func NewSubscriptionService(
	db *gorm.DB,
	requestRepo repositories.SubscriptionRequestRepository,
	provisioningRepo repositories.ProvisioningRepository,
	numbers numbering.Generator,
	metrics *observability.Metrics,
) *SubscriptionService {
	return &SubscriptionService{
		DB:           db,
		Requests:     requestRepo,
		Provisioning: provisioningRepo,
		Numbers:      numbers,
		Metrics:      metrics,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// WithClock replaces the time source used for approval, payment and completion stamps.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// GetSubscriptionRequest loads a request or returns an ErrNotFound error.
func (s *SubscriptionService) GetSubscriptionRequest(id uuid.UUID) (*models.SubscriptionRequest, error) {
	request, err := s.Requests.GetSubscriptionRequestByID(nil, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	return request, nil
}

// mutate runs fn against the locked request inside one transaction and returns the row as
// committed. fn sees the state as of the lock, so its checks cannot go stale before the write.
func (s *SubscriptionService) mutate(
	operation string,
	id uuid.UUID,
	fn func(tx *gorm.DB, current *models.SubscriptionRequest) error,
) (*models.SubscriptionRequest, error) {
	var updated *models.SubscriptionRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		current, err := s.Requests.LockSubscriptionRequest(tx, id)
		if err != nil {
			return s.lookupError(id, err)
		}
		if err := fn(tx, current); err != nil {
			return err
		}
		updated, err = s.Requests.GetSubscriptionRequestByID(tx, id)
		return err
	})
	s.Metrics.ObserveTransition(operation, err)
	if err != nil {
		config.Logger.Warn("Subscription request operation failed",
			zap.String("operation", operation),
			zap.String("requestID", id.String()),
			zap.Error(err))
		return nil, err
	}

	config.Logger.Info("Subscription request updated",
		zap.String("operation", operation),
		zap.String("requestID", id.String()),
		zap.String("requestNo", updated.RequestNo),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// guardedUpdate writes updates only if the row still has the status current was read with.
func (s *SubscriptionService) guardedUpdate(
	tx *gorm.DB,
	operation string,
	current *models.SubscriptionRequest,
	updates map[string]interface{},
) error {
	rows, err := s.Requests.UpdateSubscriptionRequestGuarded(tx, current.ID, statusSet{current.Status}, updates)
	if err != nil {
		return err
	}
	if rows == 0 {
		return conflict(operation)
	}
	return nil
}

func (s *SubscriptionService) lookupError(id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewErrorf("subscription request %s not found", id).
			WithHint("Check the request id").
			Mark(ErrNotFound)
	}
	return errors.Wrapf(err, "failed to load subscription request %s", id)
}

func (s *SubscriptionService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return WithError(err).Mark(ErrValidation)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return NewErrorf("invalid request: %s", strings.Join(fields, ", ")).
		WithHint("Correct the listed fields and resubmit").
		Mark(ErrValidation)
}

// appendNote adds one timestamped line to the request's running notes.
func appendNote(existing string, at time.Time, note string) string {
	line := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04"), strings.TrimSpace(note))
	if strings.TrimSpace(existing) == "" {
		return line
	}
	return existing + "\n" + line
}

func actor(name string) string {
	if strings.TrimSpace(name) == "" {
		return "system"
	}
	return strings.TrimSpace(name)
}
