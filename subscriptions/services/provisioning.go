package services

import (
	"fmt"
	"strings"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/db/models"
	"utility-billing-backend/numbering"
	"utility-billing-backend/subscriptions/requests"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CategoryCodes maps an applicant's customer type to the billing category code it is
// provisioned under.
var CategoryCodes = map[models.CustomerType]string{
	models.ResidentialCustomer:  "RES",
	models.CommercialCustomer:   "COM",
	models.IndustrialCustomer:   "IND",
	models.AgriculturalCustomer: "AGR",
	models.GovernmentalCustomer: "GOV",
}

// CompleteInstallation turns an assigned request into a billable customer. The account
// number, customer, meter, opening reading and the COMPLETED request are written in one
// transaction; if any write fails none of them persist and the request keeps its status.
func (s *SubscriptionService) CompleteInstallation(id uuid.UUID, input requests.CompleteInstallationRequest) (*requests.ProvisioningResult, error) {
	started := time.Now()
	result, err := s.completeInstallation(id, input)
	s.Metrics.ObserveTransition("complete", err)
	s.Metrics.ObserveProvisioning(started, err)
	if err != nil {
		config.Logger.Error("Installation completion failed",
			zap.String("requestID", id.String()),
			zap.Error(err))
		return nil, err
	}

	config.Logger.Info("Subscription request provisioned",
		zap.String("requestID", id.String()),
		zap.String("requestNo", result.Request.RequestNo),
		zap.String("accountNo", result.Customer.AccountNo),
		zap.String("meterSerial", result.Meter.SerialNumber))
	return result, nil
}

func (s *SubscriptionService) completeInstallation(id uuid.UUID, input requests.CompleteInstallationRequest) (*requests.ProvisioningResult, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	if input.InitialReading.IsNegative() {
		return nil, NewErrorf("initial reading must not be negative, got %s", input.InitialReading).
			WithHint("Enter the reading shown on the installed meter").
			Mark(ErrInvalidAmount)
	}

	request, err := s.GetSubscriptionRequest(id)
	if err != nil {
		return nil, err
	}
	if !canTransition(request.Status, models.CompletedSubscription) {
		return nil, invalidState("complete installation of", request.Status)
	}

	category, err := s.resolveCategory(request.CustomerType)
	if err != nil {
		return nil, err
	}
	meterType, err := s.Provisioning.FindDefaultMeterType()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError("no active meter type is configured").
				WithHint("Create an active meter type, ideally flagged as default, before completing installations").
				Mark(ErrConfigurationMissing)
		}
		return nil, errors.Wrap(err, "failed to look up the default meter type")
	}

	if _, err := meterSerial(input, request); err != nil {
		return nil, err
	}

	by := actor(input.CompletedBy)
	var customer *models.Customer
	var meter *models.Meter

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		current, err := s.Requests.LockSubscriptionRequest(tx, id)
		if err != nil {
			return s.lookupError(id, err)
		}
		if !canTransition(current.Status, models.CompletedSubscription) || current.CustomerID != nil {
			return invalidState("complete installation of", current.Status)
		}
		serial, err := meterSerial(input, current)
		if err != nil {
			return err
		}

		now := s.now()
		accountNo, err := s.Numbers.NextNumber(tx, numbering.CustomerAccountCounter)
		if err != nil {
			return errors.Wrap(err, "failed to generate account number")
		}

		requestID := current.ID
		customer = &models.Customer{
			AccountNo:             accountNo,
			Name:                  current.ApplicantName,
			CategoryID:            category.ID,
			IDDocumentType:        current.IDDocumentType,
			IDDocumentNumber:      current.IDDocumentNumber,
			Phone:                 current.Phone,
			Mobile:                current.Mobile,
			Email:                 current.Email,
			Address:               current.Address,
			City:                  current.City,
			District:              current.District,
			PostalCode:            current.PostalCode,
			Latitude:              current.Latitude,
			Longitude:             current.Longitude,
			Status:                models.ActiveCustomer,
			ConnectionDate:        now,
			SubscriptionRequestID: &requestID,
			CreatedBy:             by,
		}
		if err := s.Provisioning.CreateCustomer(tx, customer); err != nil {
			return err
		}

		meter = &models.Meter{
			SerialNumber:     serial,
			CustomerID:       customer.ID,
			MeterTypeID:      meterType.ID,
			LastReading:      input.InitialReading,
			LastReadingDate:  now,
			InstallationDate: now,
			Status:           models.ActiveMeter,
			CreatedBy:        by,
		}
		if err := s.Provisioning.CreateMeter(tx, meter); err != nil {
			return err
		}

		reading := &models.MeterReading{
			MeterID:         meter.ID,
			CustomerID:      customer.ID,
			ReadingType:     models.InitialReadingType,
			PreviousReading: decimal.Zero,
			CurrentReading:  input.InitialReading,
			Consumption:     decimal.Zero,
			ReadingDate:     now,
			Notes:           trimmed(input.Notes),
			CreatedBy:       by,
		}
		if err := s.Provisioning.CreateMeterReading(tx, reading); err != nil {
			return err
		}

		note := fmt.Sprintf("Installation completed by %s: account %s, meter %s", by, accountNo, serial)
		if input.Notes != nil && strings.TrimSpace(*input.Notes) != "" {
			note += " (" + strings.TrimSpace(*input.Notes) + ")"
		}
		return s.guardedUpdate(tx, "complete installation", current, map[string]interface{}{
			"status":              models.CompletedSubscription,
			"customer_id":         customer.ID,
			"completion_date":     now,
			"meter_serial_number": serial,
			"updated_by":          by,
			"notes":               appendNote(current.Notes, now, note),
		})
	})
	if err != nil {
		return nil, WithError(err).
			WithMessage(fmt.Sprintf("provisioning of request %s rolled back", request.RequestNo)).
			Mark(ErrProvisioningFailed)
	}

	completed, err := s.GetSubscriptionRequest(id)
	if err != nil {
		return nil, err
	}
	customer.Category = *category
	meter.MeterType = *meterType
	return &requests.ProvisioningResult{Request: completed, Customer: customer, Meter: meter}, nil
}

func (s *SubscriptionService) resolveCategory(customerType models.CustomerType) (*models.CustomerCategory, error) {
	code, ok := CategoryCodes[customerType]
	if !ok {
		return nil, NewErrorf("no customer category is mapped for customer type %q", customerType).
			WithHint("Use one of residential, commercial, industrial, agricultural or governmental").
			Mark(ErrConfigurationMissing)
	}

	category, err := s.Provisioning.FindCustomerCategoryByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewErrorf("customer category %s is not configured", code).
				WithHintf("Create an active customer category with code %s", code).
				Mark(ErrConfigurationMissing)
		}
		return nil, errors.Wrapf(err, "failed to look up customer category %s", code)
	}
	return category, nil
}

// meterSerial prefers the serial entered at completion and falls back to the one recorded
// when the technician was assigned.
func meterSerial(input requests.CompleteInstallationRequest, request *models.SubscriptionRequest) (string, error) {
	serial := strings.TrimSpace(input.MeterSerialNumber)
	if serial == "" && request.MeterSerialNumber != nil {
		serial = strings.TrimSpace(*request.MeterSerialNumber)
	}
	if serial == "" {
		return "", NewError("meter serial number is required").
			WithHint("Provide the serial number of the installed meter").
			Mark(ErrValidation)
	}
	return serial, nil
}
