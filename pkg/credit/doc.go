// Package credit implements the pure arithmetic of the usage-credit ledger:
// consuming credits, checking sufficiency, and deciding when a subscription's
// monthly credit grant is due.
//
// Accounts carry two balances. Regular credit is replenished every billing
// period and is consumed first. Bonus credit comes from one-time purchases,
// never expires, and is only drawn on once regular credit is exhausted.
//
// # Ledger Arithmetic
//
// Consume and HasEnough are total functions: they never fail, they clamp
// negative inputs to zero instead. This keeps callers simple at the cost of
// masking a pre-existing negative regular balance, which is absorbed later
// by the periodic refresh (see the billing package).
//
//	balance := credit.Consume(100, 15, 110)
//	// balance.Credit == 0, balance.Bonus == 5
//
// # Refresh Checkpoints
//
// CheckRefresh decides whether a periodic grant is due. A checkpoint is the
// instant within a given UTC month derived from the subscription's cycle
// anchor: same day-of-month and time-of-day, re-anchored to that month. When
// the anchor day overflows a shorter month (day 31 in a 30-day month) the
// checkpoint lands on the last day of that month instead of rolling over.
//
// The calculator checks monthly checkpoints regardless of the actual billing
// interval, so monthly and yearly subscriptions are handled uniformly: a
// yearly subscriber still receives a grant each month until the period ends.
//
// The current time is an explicit argument, never read from a global clock,
// so the policy is fully testable:
//
//	status := credit.CheckRefresh(credit.TierPro, &periodEnd, &anchor, lastRefresh, time.Now().UTC())
//	if status.ShouldRefresh {
//		// apply the plan's monthly grant
//	}
//
// All functions in this package are deterministic and side-effect free.
package credit
