// Package billing orchestrates the credit lifecycle of accounts: periodic
// subscription refreshes and reconciliation of payment-provider events.
//
// The package sits between three boundaries. AccountStore is the
// persistence boundary and owns atomicity: every account mutation runs as a
// single read-modify-write inside one transaction. Provider is the payment
// boundary (Stripe in production) and owns webhook signature verification
// plus hosted checkout and portal sessions. The plan table resolves provider
// price identifiers to credit grants. Service ties the three together and
// holds no mutable state of its own.
//
// # Refresh
//
// On Balance or Refresh the service evaluates the checkpoint gate from
// pkg/credit against the stored account. When a refresh is due, it is
// applied inside a store transaction that re-evaluates the gate against the
// row it actually read, so concurrent readers cannot grant twice. A refresh
// replaces leftover credit unless the balance is negative, in which case the
// deficit carries forward against the new grant. Bonus credit is never
// touched by refreshes.
//
// # Event Reconciliation
//
// Webhook delivery is at-least-once and unordered. Events carrying a
// provider event id are recorded in an applied-event log in the same
// transaction as the account mutation; replays surface as
// ErrEventAlreadyApplied from the store and are acknowledged as successes.
// Update events without a prior-state snapshot are informational no-ops
// rather than guesses against possibly stale stored state.
//
// # Usage
//
//	table, _ := plan.NewEnvSource(cfg.Plans).Load(ctx)
//	provider, _ := billing.NewStripeProvider(cfg.Stripe)
//	svc := billing.NewService(store, table,
//		billing.WithProvider(provider),
//		billing.WithLogger(log),
//	)
//
//	event, err := provider.ParseWebhook(ctx, payload, signature)
//	if err == nil && event != nil {
//		err = svc.ProcessEvent(ctx, event)
//	}
package billing
