package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MetadataIdentityKey is the checkout-session metadata key carrying our
// identity id, written at checkout creation and read back from webhooks.
const MetadataIdentityKey = "identity_id"

// StripeConfig holds the Stripe credentials.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider against the Stripe API. Webhook
// payloads are decoded into minimal local structs so only the fields the
// core consumes are bound to the wire format.
type StripeProvider struct {
	cfg StripeConfig

	// API calls are injected so tests can stub them out.
	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getCheckoutSession    func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSubscription       func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	createPortalSession   func(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// NewStripeProvider validates the configuration and wires the Stripe SDK.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	stripe.Key = cfg.APIKey

	return &StripeProvider{
		cfg:                   cfg,
		createCheckoutSession: checkoutsession.New,
		getCheckoutSession:    checkoutsession.Get,
		getSubscription:       stripesub.Get,
		createPortalSession:   portalsession.New,
	}, nil
}

// CreateCheckoutSession creates a hosted checkout in the requested mode with
// the identity id in session metadata.
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.Join(ErrInvalidEvent, errors.New("price id is required for checkout"))
	}
	if req.IdentityID == "" {
		return nil, ErrMissingIdentityID
	}

	var mode stripe.CheckoutSessionMode
	switch req.Mode {
	case ModeSubscription:
		mode = stripe.CheckoutSessionModeSubscription
	case ModePayment:
		mode = stripe.CheckoutSessionModePayment
	default:
		return nil, fmt.Errorf("invalid checkout mode %q", req.Mode)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			MetadataIdentityKey: req.IdentityID,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	session, err := p.createCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{URL: session.URL, SessionID: session.ID}, nil
}

// CreatePortalSession creates a billing-portal session for the customer.
func (p *StripeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (*PortalSession, error) {
	if customerID == "" {
		return nil, ErrMissingCustomerID
	}

	params := &stripe.BillingPortalSessionParams{
		Customer: stripe.String(customerID),
	}
	if returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}

	session, err := p.createPortalSession(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe portal session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoPortalURL
	}
	return &PortalSession{URL: session.URL}, nil
}

// ParseWebhook verifies the Stripe signature and normalizes the event.
// Event types the reconciler does not handle return (nil, nil).
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return p.parseCheckoutCompleted(&event)
	case "customer.subscription.updated":
		return p.parseSubscriptionUpdated(&event)
	case "customer.subscription.deleted":
		return p.parseSubscriptionDeleted(&event)
	default:
		return nil, nil
	}
}

// stripeCheckoutSession is the slice of a checkout.session payload the core
// needs.
type stripeCheckoutSession struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// stripeSubscription is the slice of a customer.subscription payload the
// core needs. The billing period lives on the subscription items.
type stripeSubscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	BillingCycleAnchor int64  `json:"billing_cycle_anchor"`
	Items              struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *stripeSubscription) firstPriceID() string {
	for _, item := range s.Items.Data {
		if item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func (s *stripeSubscription) firstPeriodEnd() int64 {
	for _, item := range s.Items.Data {
		if item.CurrentPeriodEnd != 0 {
			return item.CurrentPeriodEnd
		}
	}
	return 0
}

func (p *StripeProvider) parseCheckoutCompleted(event *stripe.Event) (*Event, error) {
	var raw stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &raw); err != nil {
		return nil, fmt.Errorf("decode checkout.session: %w", err)
	}

	e := &Event{
		ID:            event.ID,
		Kind:          EventCheckoutCompleted,
		Mode:          CheckoutMode(raw.Mode),
		IdentityID:    raw.Metadata[MetadataIdentityKey],
		PaymentStatus: raw.PaymentStatus,
		CustomerID:    raw.Customer,
	}

	switch e.Mode {
	case ModeSubscription:
		if raw.Subscription == "" {
			return nil, errors.Join(ErrInvalidEvent, errors.New("checkout session has no subscription id"))
		}
		sub, err := p.getSubscription(raw.Subscription, nil)
		if err != nil {
			return nil, fmt.Errorf("retrieve subscription %s: %w", raw.Subscription, err)
		}
		e.SubscriptionID = sub.ID
		e.CycleAnchor = unixTime(sub.BillingCycleAnchor)
		if items := sub.Items.Data; len(items) > 0 {
			if items[0].Price != nil {
				e.PriceID = items[0].Price.ID
			}
			e.PeriodEnd = unixTime(items[0].CurrentPeriodEnd)
		}

	case ModePayment:
		// The one-time price only appears in the expanded line items.
		params := &stripe.CheckoutSessionParams{}
		params.AddExpand("line_items")
		session, err := p.getCheckoutSession(raw.ID, params)
		if err != nil {
			return nil, fmt.Errorf("retrieve checkout session %s: %w", raw.ID, err)
		}
		if session.LineItems != nil {
			for _, item := range session.LineItems.Data {
				if item.Price != nil && item.Price.ID != "" {
					e.PriceID = item.Price.ID
					break
				}
			}
		}
		if e.PaymentStatus == "" {
			e.PaymentStatus = string(session.PaymentStatus)
		}
	}

	return e, nil
}

func (p *StripeProvider) parseSubscriptionUpdated(event *stripe.Event) (*Event, error) {
	var raw stripeSubscription
	if err := json.Unmarshal(event.Data.Raw, &raw); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	e := &Event{
		ID:                 event.ID,
		Kind:               EventSubscriptionUpdated,
		CustomerID:         raw.Customer,
		SubscriptionID:     raw.ID,
		PriceID:            raw.firstPriceID(),
		SubscriptionStatus: raw.Status,
		PeriodEnd:          unixTime(raw.firstPeriodEnd()),
		CycleAnchor:        unixTime(raw.BillingCycleAnchor),
	}

	// The prior-state snapshot rides along as previous_attributes; absence
	// means the update carries no plan delta.
	if len(event.Data.PreviousAttributes) > 0 {
		prevJSON, err := json.Marshal(event.Data.PreviousAttributes)
		if err != nil {
			return nil, fmt.Errorf("re-encode previous attributes: %w", err)
		}
		var prev stripeSubscription
		if err := json.Unmarshal(prevJSON, &prev); err != nil {
			return nil, fmt.Errorf("decode previous attributes: %w", err)
		}
		e.PreviousPriceID = prev.firstPriceID()
	}

	return e, nil
}

func (p *StripeProvider) parseSubscriptionDeleted(event *stripe.Event) (*Event, error) {
	var raw stripeSubscription
	if err := json.Unmarshal(event.Data.Raw, &raw); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	return &Event{
		ID:             event.ID,
		Kind:           EventSubscriptionDeleted,
		CustomerID:     raw.Customer,
		SubscriptionID: raw.ID,
	}, nil
}

// unixTime converts provider seconds-since-epoch to the core's time unit.
// Zero means absent.
func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
