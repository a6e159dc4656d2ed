package billing

import "time"

// EventKind is the normalized billing event type. Each provider
// implementation maps its own event names onto these.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
)

// CheckoutMode distinguishes a recurring subscription checkout from a
// one-time package purchase.
type CheckoutMode string

const (
	ModeSubscription CheckoutMode = "subscription"
	ModePayment      CheckoutMode = "payment"
)

// Subscription statuses the reconciler accepts for plan-switch events.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
)

// Event is a normalized, parsed billing event. Delivery is at-least-once and
// unordered; the reconciler must stay safe under duplicates and reordering.
// ID is the provider's own event id and keys the applied-event log; events
// without one are applied without deduplication.
type Event struct {
	ID   string
	Kind EventKind

	// Checkout fields.
	Mode          CheckoutMode
	IdentityID    string // from checkout session metadata
	PaymentStatus string

	// Subscription linkage.
	CustomerID      string
	SubscriptionID  string
	PriceID         string
	PreviousPriceID string // prior-state snapshot on update events, may be empty

	SubscriptionStatus string
	PeriodEnd          *time.Time
	CycleAnchor        *time.Time
}
