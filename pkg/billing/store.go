package billing

import "context"

// UpdateFunc mutates an account in place inside a storage transaction.
// Returning an error aborts the transaction; nothing is persisted.
type UpdateFunc func(a *Account) error

// AccountStore is the persistence boundary for billing accounts.
//
// Update methods must execute as a single atomic read-modify-write scoped to
// the account row: read the current row, run fn against it, persist the
// result, all inside one transaction (or equivalent compare-and-swap), so
// concurrent events for the same account cannot produce lost updates.
// Accounts are independently lockable; no cross-account coordination exists.
//
// The eventID argument keys the applied-event log. When non-empty, the store
// must record it in the same transaction as the mutation and return
// ErrEventAlreadyApplied, applying nothing, if it was recorded before. An
// empty eventID skips deduplication.
//
// Cancellation of ctx must roll back, leaving no partial mutation visible.
type AccountStore interface {
	// Upsert creates the account for an identity if it does not exist yet
	// and returns the stored row. Concurrent duplicate creation attempts
	// must not error or double-create.
	Upsert(ctx context.Context, identityID, email string) (*Account, error)

	// ByIdentityID returns ErrAccountNotFound when no account exists.
	ByIdentityID(ctx context.Context, identityID string) (*Account, error)

	// ByCustomerID returns ErrAccountNotFound when no account is linked to
	// the payment-provider customer.
	ByCustomerID(ctx context.Context, customerID string) (*Account, error)

	UpdateByIdentityID(ctx context.Context, identityID, eventID string, fn UpdateFunc) (*Account, error)
	UpdateByCustomerID(ctx context.Context, customerID, eventID string, fn UpdateFunc) (*Account, error)

	// AddBonusCredit adds amount to the bonus pool as an atomic increment;
	// it does not need to read current state first.
	AddBonusCredit(ctx context.Context, identityID, eventID string, amount int64) (*Account, error)
}
