package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unblurhq/unblur/pkg/credit"
	"github.com/unblurhq/unblur/pkg/plan"
)

// errRefreshNotDue aborts a refresh transaction whose gate re-evaluation
// found nothing to do. Callers treat it as a successful no-op.
var errRefreshNotDue = errors.New("credit refresh not due")

// Service orchestrates credit refreshes and reconciles billing events
// against the account store. It holds no mutable state of its own; all
// account mutations go through the store's atomic read-modify-write.
type Service struct {
	store    AccountStore
	table    *plan.Table
	provider Provider
	log      *slog.Logger
	now      func() time.Time
}

// NewService wires the billing service. Panics if store or table is nil to
// fail fast during initialization. The provider is optional; without one the
// checkout and portal methods return an error but webhook reconciliation
// (which receives already-parsed events) still works.
func NewService(store AccountStore, table *plan.Table, opts ...Option) *Service {
	if store == nil {
		panic("billing: AccountStore is required")
	}
	if table == nil {
		panic("billing: plan table is required")
	}

	s := &Service{
		store: store,
		table: table,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncAccount creates the billing account for an identity if it does not
// exist yet. Safe to call on every sign-in; concurrent duplicate syncs
// resolve to the same row.
func (s *Service) SyncAccount(ctx context.Context, identityID, email string) (*Account, error) {
	if identityID == "" {
		return nil, ErrMissingIdentityID
	}
	return s.store.Upsert(ctx, identityID, email)
}

// BalanceSummary is the caller-facing view of an account's credit state.
type BalanceSummary struct {
	Tier        credit.Tier
	Credit      int64
	BonusCredit int64
	Total       int64
	Refreshed   bool // whether this read applied a periodic grant
}

// Balance returns the account's balance, first applying the periodic grant
// when one is due. Concurrent balance reads cannot double-grant: the
// checkpoint gate is re-evaluated against the row read inside the refresh
// transaction.
func (s *Service) Balance(ctx context.Context, identityID string) (BalanceSummary, error) {
	if identityID == "" {
		return BalanceSummary{}, ErrMissingIdentityID
	}

	acct, err := s.store.ByIdentityID(ctx, identityID)
	if err != nil {
		return BalanceSummary{}, err
	}

	refreshed := false
	st := credit.CheckRefresh(acct.Tier, acct.CurrentPeriodEnd, acct.CycleAnchor, acct.LastRefreshAt, s.now())
	if st.ShouldRefresh {
		updated, err := s.applyRefresh(ctx, identityID)
		switch {
		case err == nil:
			acct = updated
			refreshed = true
		case errors.Is(err, errRefreshNotDue):
			// Another reader refreshed first; the stored balance is current.
		default:
			return BalanceSummary{}, err
		}
	}

	return BalanceSummary{
		Tier:        acct.Tier,
		Credit:      acct.Credit,
		BonusCredit: acct.BonusCredit,
		Total:       acct.Balance().Total(),
		Refreshed:   refreshed,
	}, nil
}

// Refresh applies the periodic grant if one is due and reports whether it
// did. A second call before the next checkpoint is a no-op.
func (s *Service) Refresh(ctx context.Context, identityID string) (bool, error) {
	if identityID == "" {
		return false, ErrMissingIdentityID
	}

	_, err := s.applyRefresh(ctx, identityID)
	if errors.Is(err, errRefreshNotDue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyRefresh runs the grant inside one atomic read-modify-write. The
// checkpoint gate runs again on the row read in the transaction, so a
// racing refresh that already advanced LastRefreshAt aborts cleanly.
func (s *Service) applyRefresh(ctx context.Context, identityID string) (*Account, error) {
	return s.store.UpdateByIdentityID(ctx, identityID, "", func(a *Account) error {
		st := credit.CheckRefresh(a.Tier, a.CurrentPeriodEnd, a.CycleAnchor, a.LastRefreshAt, s.now())
		if !st.ShouldRefresh {
			return errRefreshNotDue
		}

		// A refresh must not silently no-op on bad configuration.
		if a.PriceID == "" {
			return ErrMissingPriceID
		}
		grant, err := s.table.PlanByPriceID(a.PriceID)
		if err != nil {
			return fmt.Errorf("resolve plan %q for refresh: %w", a.PriceID, err)
		}

		if a.Credit < 0 {
			// Carry the deficit forward: the grant is reduced by the
			// amount already overdrawn.
			a.Credit += grant.Credit
		} else {
			// Each period's grant supersedes leftover credit.
			a.Credit = grant.Credit
		}
		now := s.now()
		a.LastRefreshAt = &now
		return nil
	})
}

// ProcessEvent applies one parsed billing event to the account it targets.
// It is safe under at-least-once delivery: events carrying a provider event
// id are recorded in the applied-event log inside the same transaction as
// the account mutation, and replays return success without re-applying.
// Failures carry the event kind and customer id for manual reconciliation;
// retry policy belongs to the delivery mechanism, not here.
func (s *Service) ProcessEvent(ctx context.Context, e *Event) error {
	if e == nil {
		return ErrInvalidEvent
	}

	var err error
	switch e.Kind {
	case EventCheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, e)
	case EventSubscriptionUpdated:
		err = s.applySubscriptionUpdated(ctx, e)
	case EventSubscriptionDeleted:
		err = s.applySubscriptionDeleted(ctx, e)
	default:
		err = errors.Join(ErrInvalidEvent, fmt.Errorf("unknown event kind %q", e.Kind))
	}

	if errors.Is(err, ErrEventAlreadyApplied) {
		s.log.InfoContext(ctx, "billing event replayed, already applied",
			slog.String("event_id", e.ID),
			slog.String("kind", string(e.Kind)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("process %s event %s (customer %s): %w", e.Kind, e.ID, e.CustomerID, err)
	}
	return nil
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, e *Event) error {
	if e.IdentityID == "" {
		return errors.Join(ErrInvalidEvent, errors.New("checkout session has no identity id in metadata"))
	}
	if e.PaymentStatus == "unpaid" {
		return ErrUnpaidCheckout
	}

	switch e.Mode {
	case ModeSubscription:
		if e.CustomerID == "" {
			return errors.Join(ErrInvalidEvent, ErrMissingCustomerID)
		}
		if e.SubscriptionID == "" {
			return errors.Join(ErrInvalidEvent, errors.New("no subscription id on checkout"))
		}
		if e.PeriodEnd == nil || e.CycleAnchor == nil {
			return errors.Join(ErrInvalidEvent, errors.New("no billing period on checkout"))
		}

		grant, err := s.table.PlanByPriceID(e.PriceID)
		if err != nil {
			return err
		}

		_, err = s.store.UpdateByIdentityID(ctx, e.IdentityID, e.ID, func(a *Account) error {
			a.CustomerID = e.CustomerID
			a.SubscriptionID = e.SubscriptionID
			a.PriceID = e.PriceID
			a.Tier = grant.Tier
			// Initial subscription credit stacks onto signup credit.
			a.Credit += grant.Credit
			a.BonusCredit += grant.Bonus
			a.CurrentPeriodEnd = e.PeriodEnd
			a.CycleAnchor = e.CycleAnchor
			now := s.now()
			a.LastRefreshAt = &now
			return nil
		})
		return err

	case ModePayment:
		pack, err := s.table.PackageByPriceID(e.PriceID)
		if err != nil {
			return err
		}
		// Pure additive grant; an atomic increment suffices.
		_, err = s.store.AddBonusCredit(ctx, e.IdentityID, e.ID, pack.Bonus)
		return err

	default:
		return errors.Join(ErrInvalidEvent, fmt.Errorf("invalid checkout mode %q", e.Mode))
	}
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, e *Event) error {
	if e.CustomerID == "" {
		return errors.Join(ErrInvalidEvent, ErrMissingCustomerID)
	}

	// Update events without a prior-state snapshot carry no plan delta.
	// Guessing a baseline from stored state could itself be stale under
	// reordered delivery, so these are informational no-ops.
	if e.PreviousPriceID == "" {
		s.log.InfoContext(ctx, "subscription update without previous price, skipping",
			slog.String("event_id", e.ID),
			slog.String("customer_id", e.CustomerID))
		return nil
	}

	if e.SubscriptionStatus != StatusActive && e.SubscriptionStatus != StatusTrialing {
		return errors.Join(ErrInactiveSubscription, fmt.Errorf("status %q", e.SubscriptionStatus))
	}
	if e.PeriodEnd == nil || e.CycleAnchor == nil {
		return errors.Join(ErrInvalidEvent, errors.New("no billing period on update"))
	}

	grant, err := s.table.PlanByPriceID(e.PriceID)
	if err != nil {
		return err
	}
	previous, err := s.table.PlanByPriceID(e.PreviousPriceID)
	if err != nil {
		return err
	}

	// Tier changes carry the grant difference; lateral moves (e.g. monthly
	// to yearly on the same tier) carry none.
	var delta int64
	if grant.Tier.Rank() != previous.Tier.Rank() {
		delta = grant.Credit - previous.Credit
	}

	_, err = s.store.UpdateByCustomerID(ctx, e.CustomerID, e.ID, func(a *Account) error {
		a.SubscriptionID = e.SubscriptionID
		a.PriceID = e.PriceID
		a.Tier = grant.Tier
		a.Credit += delta
		a.BonusCredit += grant.Bonus
		a.CurrentPeriodEnd = e.PeriodEnd
		a.CycleAnchor = e.CycleAnchor
		now := s.now()
		a.LastRefreshAt = &now
		return nil
	})
	return err
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, e *Event) error {
	if e.CustomerID == "" {
		return errors.Join(ErrInvalidEvent, ErrMissingCustomerID)
	}

	_, err := s.store.UpdateByCustomerID(ctx, e.CustomerID, e.ID, func(a *Account) error {
		a.PriceID = ""
		a.CurrentPeriodEnd = nil
		a.CycleAnchor = nil
		a.Tier = credit.TierFree
		a.Credit = 0
		a.LastRefreshAt = nil
		// Bonus credit survives cancellation.
		return nil
	})
	return err
}

// CreateCheckoutSession creates a hosted checkout for an existing account.
func (s *Service) CreateCheckoutSession(ctx context.Context, identityID string, req CheckoutRequest) (*CheckoutSession, error) {
	if s.provider == nil {
		return nil, errors.New("billing: no provider configured")
	}
	if identityID == "" {
		return nil, ErrMissingIdentityID
	}

	// The account must be synced first so the webhook can find it.
	if _, err := s.store.ByIdentityID(ctx, identityID); err != nil {
		return nil, err
	}

	req.IdentityID = identityID
	return s.provider.CreateCheckoutSession(ctx, req)
}

// CreatePortalSession returns a customer-portal link for an account that is
// linked to a provider customer.
func (s *Service) CreatePortalSession(ctx context.Context, identityID, returnURL string) (*PortalSession, error) {
	if s.provider == nil {
		return nil, errors.New("billing: no provider configured")
	}

	acct, err := s.store.ByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if acct.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}
	return s.provider.CreatePortalSession(ctx, acct.CustomerID, returnURL)
}
