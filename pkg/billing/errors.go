package billing

import "errors"

// Account lookup and lifecycle.
var (
	ErrAccountNotFound    = errors.New("billing account not found")
	ErrMissingIdentityID  = errors.New("identity id is required")
	ErrMissingCustomerID  = errors.New("customer id is required")
	ErrMissingPriceID     = errors.New("account has no price id to refresh against")
	ErrConflict           = errors.New("concurrent update lost the race, retry once")
	ErrInsufficientCredit = errors.New("not enough credit for this action")
)

// Event reconciliation.
var (
	ErrInvalidEvent         = errors.New("billing event is missing required fields")
	ErrUnpaidCheckout       = errors.New("checkout payment status is unpaid")
	ErrInactiveSubscription = errors.New("subscription is neither active nor trialing")
	ErrEventAlreadyApplied  = errors.New("billing event was already applied")
)

// Provider integration.
var (
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrWebhookVerification  = errors.New("webhook signature verification failed")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL          = errors.New("no portal URL returned from provider")
)
