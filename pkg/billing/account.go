package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/unblurhq/unblur/pkg/credit"
)

// Account is the billing state of one end user. It is created on the first
// successful identity sync and mutated by credit consumption, the periodic
// refresh, and subscription lifecycle events. BonusCredit never goes
// negative; Credit may dip below zero only as a transient bookkeeping
// artifact that the next refresh absorbs.
type Account struct {
	ID         uuid.UUID
	IdentityID string // opaque external auth id
	Email      string

	Tier          credit.Tier
	Credit        int64
	BonusCredit   int64
	LastRefreshAt *time.Time // last successful periodic grant, nil before the first

	// Subscription linkage to the payment provider.
	CustomerID       string
	SubscriptionID   string
	PriceID          string
	CurrentPeriodEnd *time.Time
	CycleAnchor      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance returns the account's credit pools as a ledger balance.
func (a *Account) Balance() credit.Balance {
	return credit.Balance{Credit: a.Credit, Bonus: a.BonusCredit}
}

// Subscribed reports whether the account is linked to a provider subscription.
func (a *Account) Subscribed() bool {
	return a.SubscriptionID != "" && a.PriceID != ""
}
