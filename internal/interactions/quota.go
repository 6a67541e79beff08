// internal/interactions/quota.go
// The single quota primitive shared by the write-path check in
// RecordInteraction and the read path in GetDailyLimits. Both use the same
// day window and the same count, so the two can never disagree.

package interactions

import (
	"time"
)

const unlimited = -1

// Per-day allowances by tier. Pass, block, and report are never limited.
var tierLimits = map[Tier]map[Kind]int{
	TierFree: {
		KindLike:      20,
		KindSuperLike: 1,
		KindPass:      unlimited,
		KindBlock:     unlimited,
		KindReport:    unlimited,
	},
	TierPremium: {
		KindLike:      unlimited,
		KindSuperLike: 5,
		KindPass:      unlimited,
		KindBlock:     unlimited,
		KindReport:    unlimited,
	},
}

// limitFor returns the daily allowance for a tier and kind, -1 for
// unlimited. Unknown tiers fall back to free-tier limits.
func limitFor(tier Tier, kind Kind) int {
	limits, ok := tierLimits[tier]
	if !ok {
		limits = tierLimits[TierFree]
	}
	limit, ok := limits[kind]
	if !ok {
		return unlimited
	}
	return limit
}

// dayWindow returns [start, end) of "today" at the actor's local midnight.
// Every quota decision in the package derives its window from here.
func dayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}
