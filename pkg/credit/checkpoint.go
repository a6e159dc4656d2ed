package credit

import "time"

// Tier is a named plan level determining the size of the periodic grant.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Rank returns the ordering of a tier for upgrade/downgrade comparison.
// Unknown tiers rank below free so they never count as an upgrade.
func (t Tier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierBasic:
		return 1
	case TierPro:
		return 2
	case TierEnterprise:
		return 3
	default:
		return -1
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// RefreshStatus is the outcome of a checkpoint evaluation.
type RefreshStatus struct {
	ShouldRefresh      bool
	PreviousCheckpoint *time.Time
	NextCheckpoint     *time.Time
}

// CheckRefresh reports whether a periodic credit grant is due at now.
//
// An account is eligible only while it holds a live paid subscription: a free
// tier, a missing period end or cycle anchor, or a lapsed period (now at or
// past periodEnd) all yield a negative result with no checkpoints.
//
// For eligible accounts the applicable checkpoint is the current month's if
// now has reached it, otherwise the previous month's. The grant is due iff
// lastRefresh is nil or strictly before that checkpoint, so a lastRefresh
// exactly at the checkpoint counts as already refreshed.
func CheckRefresh(tier Tier, periodEnd, anchor, lastRefresh *time.Time, now time.Time) RefreshStatus {
	if tier == TierFree || periodEnd == nil || !now.Before(*periodEnd) || anchor == nil {
		return RefreshStatus{}
	}

	now = now.UTC()
	year, month, _ := now.Date()

	current := monthCheckpoint(*anchor, year, month)
	previous := monthCheckpoint(*anchor, year, month-1)
	next := monthCheckpoint(*anchor, year, month+1)

	if !now.Before(current) {
		// Inside the period that started at the current month's checkpoint.
		return RefreshStatus{
			ShouldRefresh:      lastRefresh == nil || lastRefresh.Before(current),
			PreviousCheckpoint: &previous,
			NextCheckpoint:     &next,
		}
	}

	// Still in the tail of the previous period.
	return RefreshStatus{
		ShouldRefresh:      lastRefresh == nil || lastRefresh.Before(previous),
		PreviousCheckpoint: &previous,
		NextCheckpoint:     &current,
	}
}

// monthCheckpoint places the anchor's day-of-month and time-of-day into the
// given UTC (year, month). When the anchor day does not exist in that month
// the checkpoint falls on the month's last day instead of rolling forward.
// Month values outside 1..12 are normalized into the adjacent year.
func monthCheckpoint(anchor time.Time, year int, month time.Month) time.Time {
	a := anchor.UTC()

	// Normalize the requested (year, month) before overflow detection.
	ny, nm, _ := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Date()

	t := time.Date(ny, nm, a.Day(), a.Hour(), a.Minute(), a.Second(), a.Nanosecond(), time.UTC)
	if t.Month() != nm {
		// Day overflowed into the next month; day 0 is the last day of nm.
		t = time.Date(ny, nm+1, 0, a.Hour(), a.Minute(), a.Second(), a.Nanosecond(), time.UTC)
	}
	return t
}
