package payment

import (
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/taskner/marketplace/internal/domain/errors"
)

var validate = validator.New()

// Data carries everything a gateway needs to take a payment. Amounts are
// in the smallest currency unit (cents).
type Data struct {
	AmountCents     int64          `json:"amountCents" validate:"required,gt=0"`
	Currency        string         `json:"currency" validate:"required,len=3,iso4217"`
	CustomerID      string         `json:"customerId" validate:"required"`
	PaymentMethodID string         `json:"paymentMethodId" validate:"required"`
	PayerID         string         `json:"payerId" validate:"required"`
	BeneficiaryID   string         `json:"beneficiaryId" validate:"required"`
	ServiceType     string         `json:"serviceType" validate:"required"`
	ServiceID       string         `json:"serviceId" validate:"required"`
	Description     string         `json:"description"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Canonicalize trims identifiers and upper-cases the currency in place.
func (d *Data) Canonicalize() {
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	d.CustomerID = strings.TrimSpace(d.CustomerID)
	d.PaymentMethodID = strings.TrimSpace(d.PaymentMethodID)
	d.PayerID = strings.TrimSpace(d.PayerID)
	d.BeneficiaryID = strings.TrimSpace(d.BeneficiaryID)
}

// Validate rejects structurally invalid payment data before any gateway
// call is made.
func (d Data) Validate() error {
	if d.AmountCents <= 0 {
		return domainErrors.NewValidationError("amountCents", "must be greater than zero")
	}
	if err := validate.Var(d.Currency, "required,len=3,iso4217"); err != nil {
		return domainErrors.NewValidationError("currency", "must be a 3-letter ISO-4217 code")
	}
	if strings.TrimSpace(d.CustomerID) == "" {
		return domainErrors.NewValidationError("customerId", "must not be empty")
	}
	if strings.TrimSpace(d.PaymentMethodID) == "" {
		return domainErrors.NewValidationError("paymentMethodId", "must not be empty")
	}
	return nil
}

// WithMetadata returns a copy of d with key set in its metadata, leaving
// the original map untouched.
func (d Data) WithMetadata(key string, value any) Data {
	meta := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[key] = value
	d.Metadata = meta
	return d
}

// IntentStatus is the gateway-side state of a payment intent.
type IntentStatus string

const (
	IntentPending        IntentStatus = "pending"
	IntentRequiresAction IntentStatus = "requires_action"
	IntentSucceeded      IntentStatus = "succeeded"
	IntentFailed         IntentStatus = "failed"
)

// Intent is a pending payment created by a gateway adapter. It is never
// mutated outside the adapter that created it.
type Intent struct {
	ID           string         `json:"id"`
	AmountCents  int64          `json:"amountCents"`
	Currency     string         `json:"currency"`
	Status       IntentStatus   `json:"status"`
	ClientSecret string         `json:"clientSecret,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NextAction tells the customer how to complete a requires-action payment.
type NextAction struct {
	Kind         string `json:"kind"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Result is the terminal outcome of one payment attempt. Success excludes
// RequiresAction; a requires-action outcome carries no terminal error.
type Result struct {
	Success         bool        `json:"success"`
	TransactionID   string      `json:"transactionId,omitempty"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
	Error           string      `json:"error,omitempty"`
	RequiresAction  bool        `json:"requiresAction,omitempty"`
	NextAction      *NextAction `json:"nextAction,omitempty"`

	// Cause preserves the underlying failure class for retry decisions.
	// It never crosses a facade boundary.
	Cause error `json:"-"`
}

// Succeeded builds the result of a captured payment.
func Succeeded(transactionID, intentID string) *Result {
	return &Result{
		Success:         true,
		TransactionID:   transactionID,
		PaymentIntentID: intentID,
	}
}

// Declined builds the result of a business decline: a failure, but not an
// error condition worth retrying.
func Declined(intentID, reason string) *Result {
	return &Result{
		Success:         false,
		PaymentIntentID: intentID,
		Error:           reason,
		Cause:           domainErrors.ErrPaymentDeclined,
	}
}

// ActionRequired builds the partial-success outcome that needs customer
// follow-up before the payment can be finalized.
func ActionRequired(intentID string, action *NextAction) *Result {
	return &Result{
		Success:         false,
		PaymentIntentID: intentID,
		RequiresAction:  true,
		NextAction:      action,
	}
}

// Failed folds an unexpected or infrastructure failure into a result.
func Failed(intentID string, err error) *Result {
	return &Result{
		Success:         false,
		PaymentIntentID: intentID,
		Error:           err.Error(),
		Cause:           err,
	}
}

// Outcome labels the result for metrics.
func (r *Result) Outcome() string {
	switch {
	case r.Success:
		return "success"
	case r.RequiresAction:
		return "requires_action"
	default:
		return "failure"
	}
}

// AmountBucket coarsens an amount into a low-cardinality metric label.
func AmountBucket(cents int64) string {
	units := cents / 100
	switch {
	case units < 10:
		return "lt_10"
	case units < 100:
		return "10_100"
	case units < 500:
		return "100_500"
	case units < 1000:
		return "500_1000"
	default:
		return "gte_1000"
	}
}
