package services

import (
	"fmt"
	"utility-billing-backend/db/models"

	"github.com/cockroachdb/errors"
)

// Error kinds returned by the subscription workflow. Test with errors.Is; every error the
// service returns is marked with exactly one of these, plus ErrProvisioningFailed for
// failures inside the provisioning transaction.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrPaymentIncomplete     = errors.New("payment incomplete")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrConfigurationMissing  = errors.New("configuration missing")
	ErrConflictingTransition = errors.New("conflicting transition")
	ErrProvisioningFailed    = errors.New("provisioning failed")
	ErrValidation            = errors.New("validation error")
)

// ErrorBuilder composes a marked error with an optional hint for API consumers.
type ErrorBuilder struct {
	err error
}

func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: errors.Newf(format, args...)}
}

// WithError starts from an existing cause, keeping its chain for errors.Is.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	return b.WithHint(fmt.Sprintf(format, args...))
}

func (b *ErrorBuilder) Mark(kind error) error {
	return errors.Mark(b.err, kind)
}

// Hint returns the user-facing hints attached to err, joined by newlines.
func Hint(err error) string {
	return errors.FlattenHints(err)
}

func invalidState(operation string, status models.SubscriptionStatus) error {
	return NewErrorf("cannot %s a request in status %s", operation, status).
		WithHintf("The request is %s; %s is not allowed from this status", status, operation).
		Mark(ErrInvalidState)
}

func conflict(operation string) error {
	return NewErrorf("request changed while trying to %s", operation).
		WithHint("The request was modified by someone else. Reload it and try again").
		Mark(ErrConflictingTransition)
}
