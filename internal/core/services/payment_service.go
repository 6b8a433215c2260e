package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Payment statuses reported by the gateway. Anything not listed here as
// pending-ish is treated as terminal failure.
const (
	GatewayStatusApproved   = "approved"
	GatewayStatusPending    = "pending"
	GatewayStatusInProcess  = "in_process"
	GatewayStatusAuthorized = "authorized"
)

// CheckoutRequest carries everything needed to open a hosted checkout
type CheckoutRequest struct {
	PlanName          string
	Amount            float64
	PayerName         string
	PayerEmail        string
	ExternalReference string
}

// Checkout is the created hosted checkout session
type Checkout struct {
	PreferenceID      string
	InitPoint         string
	ExternalReference string
}

// PaymentDetails is the gateway's view of a payment, re-fetched by id so
// the webhook payload is never trusted as the source of truth
type PaymentDetails struct {
	ID                int
	Status            string
	ExternalReference string
	Amount            float64
}

// PaymentGateway wraps the external payment processor
type PaymentGateway interface {
	// CreatePreference opens a hosted checkout session
	CreatePreference(ctx context.Context, req *CheckoutRequest) (*Checkout, error)
	// GetPayment fetches full payment details by gateway payment id
	GetPayment(ctx context.Context, paymentID int) (*PaymentDetails, error)
	// SearchByReference finds the most relevant payment for an external
	// reference. Returns (nil, nil) when the gateway has none.
	SearchByReference(ctx context.Context, externalReference string) (*PaymentDetails, error)
}

// IsPaymentInFlight reports whether a gateway status still awaits a
// terminal outcome
func IsPaymentInFlight(status string) bool {
	switch status {
	case GatewayStatusPending, GatewayStatusInProcess, GatewayStatusAuthorized:
		return true
	}
	return false
}

// CalculateDiscountedPrice applies a percentage discount and rounds to the
// currency's two decimal places
func CalculateDiscountedPrice(price, discountPercentage float64) float64 {
	final := price * (1 - discountPercentage/100)
	return math.Round(final*100) / 100
}

// GenerateExternalReference builds the correlation key that links a checkout
// session back to its registration. Format is stable across the
// initiation -> webhook round trip: REGISTRATION_<email>_<epoch-millis>.
func GenerateExternalReference(email string, at time.Time) string {
	return fmt.Sprintf("REGISTRATION_%s_%d", email, at.UnixMilli())
}

// IsRegistrationReference reports whether a reference was produced by
// GenerateExternalReference
func IsRegistrationReference(ref string) bool {
	return strings.HasPrefix(ref, "REGISTRATION_")
}
