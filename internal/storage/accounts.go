package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unblurhq/unblur/pkg/billing"
	"github.com/unblurhq/unblur/pkg/credit"
	"github.com/unblurhq/unblur/pkg/pg"
)

// AccountStore is the pgx-backed implementation of billing.AccountStore.
// Row-level locking (SELECT ... FOR UPDATE) serializes concurrent mutations
// of the same account; the billing_events table deduplicates webhook
// replays inside the same transaction.
type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	if pool == nil {
		panic("storage: pgx pool is required")
	}
	return &AccountStore{pool: pool}
}

const accountColumns = `id, identity_id, email, tier, credit, bonus_credit, last_refresh_at,
	customer_id, subscription_id, price_id, current_period_end, cycle_anchor,
	created_at, updated_at`

func scanAccount(row pgx.Row) (*billing.Account, error) {
	var (
		a    billing.Account
		tier string
	)
	err := row.Scan(
		&a.ID,
		&a.IdentityID,
		&a.Email,
		&tier,
		&a.Credit,
		&a.BonusCredit,
		&a.LastRefreshAt,
		&a.CustomerID,
		&a.SubscriptionID,
		&a.PriceID,
		&a.CurrentPeriodEnd,
		&a.CycleAnchor,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, billing.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Tier = credit.Tier(tier)
	return &a, nil
}

// Upsert creates the account row for an identity when missing. The conflict
// arm refreshes the email so a changed address propagates on sign-in.
func (s *AccountStore) Upsert(ctx context.Context, identityID, email string) (*billing.Account, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (identity_id, email)
		VALUES ($1, $2)
		ON CONFLICT (identity_id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), accounts.email),
			updated_at = now()
		RETURNING `+accountColumns,
		identityID, email)
	return scanAccount(row)
}

func (s *AccountStore) ByIdentityID(ctx context.Context, identityID string) (*billing.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE identity_id = $1`, identityID)
	return scanAccount(row)
}

func (s *AccountStore) ByCustomerID(ctx context.Context, customerID string) (*billing.Account, error) {
	if customerID == "" {
		return nil, billing.ErrAccountNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE customer_id = $1`, customerID)
	return scanAccount(row)
}

func (s *AccountStore) UpdateByIdentityID(ctx context.Context, identityID, eventID string, fn billing.UpdateFunc) (*billing.Account, error) {
	return s.update(ctx, "identity_id", identityID, eventID, fn)
}

func (s *AccountStore) UpdateByCustomerID(ctx context.Context, customerID, eventID string, fn billing.UpdateFunc) (*billing.Account, error) {
	if customerID == "" {
		return nil, billing.ErrAccountNotFound
	}
	return s.update(ctx, "customer_id", customerID, eventID, fn)
}

func (s *AccountStore) AddBonusCredit(ctx context.Context, identityID, eventID string, amount int64) (*billing.Account, error) {
	return s.update(ctx, "identity_id", identityID, eventID, func(a *billing.Account) error {
		a.BonusCredit += amount
		return nil
	})
}

// update runs one read-modify-write under a row lock. The event-log insert
// happens before fn so a replay aborts without side effects.
func (s *AccountStore) update(ctx context.Context, column, key, eventID string, fn billing.UpdateFunc) (*billing.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	row := tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = $1 FOR UPDATE`, key)
	acct, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if eventID != "" {
		tag, err := tx.Exec(ctx, `
			INSERT INTO billing_events (event_id, account_id)
			VALUES ($1, $2)
			ON CONFLICT (event_id) DO NOTHING`,
			eventID, acct.ID)
		if err != nil {
			return nil, fmt.Errorf("record billing event %s: %w", eventID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, billing.ErrEventAlreadyApplied
		}
	}

	if err := fn(acct); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE accounts SET
			email = $2,
			tier = $3,
			credit = $4,
			bonus_credit = $5,
			last_refresh_at = $6,
			customer_id = $7,
			subscription_id = $8,
			price_id = $9,
			current_period_end = $10,
			cycle_anchor = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		acct.ID,
		acct.Email,
		string(acct.Tier),
		acct.Credit,
		acct.BonusCredit,
		acct.LastRefreshAt,
		acct.CustomerID,
		acct.SubscriptionID,
		acct.PriceID,
		acct.CurrentPeriodEnd,
		acct.CycleAnchor,
	).Scan(&acct.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("persist account %s: %w", acct.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return acct, nil
}
