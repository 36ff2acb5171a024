// Package tasks holds the background jobs run by the asynq worker.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"
	"utility-billing-backend/config"
	"utility-billing-backend/subscriptions/requests"
	"utility-billing-backend/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	TypeInstallationCompleted = "subscription:installation_completed"
	NotificationsQueue        = "notifications"
)

// Enqueuer is the part of *asynq.Client the API needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type InstallationCompletedPayload struct {
	RequestID    string    `json:"request_id"`
	RequestNo    string    `json:"request_no"`
	AccountNo    string    `json:"account_no"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email,omitempty"`
	MeterSerial  string    `json:"meter_serial"`
	CompletedAt  time.Time `json:"completed_at"`
}

func NewInstallationCompletedTask(payload InstallationCompletedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode installation completed payload: %w", err)
	}
	return asynq.NewTask(TypeInstallationCompleted, data,
		asynq.Queue(NotificationsQueue),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	), nil
}

// PayloadFromProvisioning describes a finished provisioning for the notification job.
func PayloadFromProvisioning(result *requests.ProvisioningResult) InstallationCompletedPayload {
	payload := InstallationCompletedPayload{
		RequestID:    result.Request.ID.String(),
		RequestNo:    result.Request.RequestNo,
		AccountNo:    result.Customer.AccountNo,
		CustomerName: result.Customer.Name,
		MeterSerial:  result.Meter.SerialNumber,
		CompletedAt:  result.Customer.ConnectionDate,
	}
	if result.Customer.Email != nil {
		payload.Email = strings.TrimSpace(*result.Customer.Email)
	}
	return payload
}

// EnqueueInstallationCompleted schedules the welcome notice for a provisioned customer.
func EnqueueInstallationCompleted(enqueuer Enqueuer, result *requests.ProvisioningResult) error {
	task, err := NewInstallationCompletedTask(PayloadFromProvisioning(result))
	if err != nil {
		return err
	}
	info, err := enqueuer.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", TypeInstallationCompleted, err)
	}
	config.Logger.Info("Enqueued installation completed notice",
		zap.String("taskID", info.ID),
		zap.String("queue", info.Queue),
		zap.String("requestNo", result.Request.RequestNo))
	return nil
}

var installationNoticeHTML = template.Must(template.New("installation_notice").Parse(
	`<p>Dear {{.CustomerName}},</p><p>Your connection for request <strong>{{.RequestNo}}</strong> has been installed.</p>` +
		`<p>Account number: <strong>{{.AccountNo}}</strong><br>Meter serial: {{.MeterSerial}}<br>Connected on: {{.CompletedAt.Format "2006-01-02"}}</p>`,
))

// Notifier e-mails new customers their account details. Limiter, when set, caps the rate
// of SMTP sends across all worker goroutines.
type Notifier struct {
	Mailer  utils.EmailSender
	Limiter *rate.Limiter
}

func (n *Notifier) HandleInstallationCompleted(ctx context.Context, t *asynq.Task) error {
	var payload InstallationCompletedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TypeInstallationCompleted, err, asynq.SkipRetry)
	}

	if payload.Email == "" {
		config.Logger.Info("No e-mail on file, skipping installation notice",
			zap.String("requestNo", payload.RequestNo),
			zap.String("accountNo", payload.AccountNo))
		return nil
	}

	subject := fmt.Sprintf("Your service connection is active (account %s)", payload.AccountNo)
	plain := fmt.Sprintf(
		"Dear %s,\n\nYour connection for request %s has been installed.\nAccount number: %s\nMeter serial: %s\nConnected on: %s\n",
		payload.CustomerName, payload.RequestNo, payload.AccountNo, payload.MeterSerial,
		payload.CompletedAt.Format("2006-01-02"),
	)
	var html strings.Builder
	if err := installationNoticeHTML.Execute(&html, payload); err != nil {
		return fmt.Errorf("failed to render installation notice for %s: %w", payload.RequestNo, err)
	}

	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("installation notice for %s not sent: %w", payload.RequestNo, err)
		}
	}
	if err := n.Mailer.Send(payload.Email, subject, plain, html.String()); err != nil {
		return fmt.Errorf("failed to send installation notice for %s: %w", payload.RequestNo, err)
	}
	return nil
}

func RegisterHandlers(mux *asynq.ServeMux, notifier *Notifier) {
	mux.HandleFunc(TypeInstallationCompleted, notifier.HandleInstallationCompleted)
}
