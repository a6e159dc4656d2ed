package billing

import "context"

// Provider is the minimal payment-provider boundary: hosted checkout and
// portal sessions plus webhook parsing. Implementations own signature
// verification and any provider API calls needed to assemble a complete
// Event; the core never touches provider SDK types.
type Provider interface {
	// ParseWebhook verifies the payload signature and returns the
	// normalized event. Event types the core does not handle yield
	// (nil, nil) so the delivery mechanism can acknowledge them.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)

	// CreateCheckoutSession creates a hosted checkout for a subscription
	// or one-time package purchase.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CreatePortalSession returns a pre-authenticated customer portal link
	// where users manage payment methods and cancellation.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)
}

// CheckoutRequest describes a hosted checkout to create.
type CheckoutRequest struct {
	IdentityID string // carried in session metadata, read back from webhooks
	Email      string
	PriceID    string
	Mode       CheckoutMode
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a created hosted checkout.
type CheckoutSession struct {
	URL       string
	SessionID string
}

// PortalSession is a created customer-portal session.
type PortalSession struct {
	URL string
}
