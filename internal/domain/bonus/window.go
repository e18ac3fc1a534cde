package bonus

import (
	"strconv"
	"time"
)

// DailyCooldownSeconds marks a policy using calendar-day reset semantics in
// the configured reset zone, rather than a rolling window.
const DailyCooldownSeconds = 86400

// ClaimWindow derives the dedup token enforced by the uniqueness constraint
// on bonus_claims. Two claim attempts that must not both succeed always
// derive the same token:
//   - daily policies: the calendar date of the attempt in the reset zone
//   - other cooldowns: the attempt instant bucketed by cooldown width
//   - no cooldown: the ordinal of the next claim, so concurrent attempts
//     that read the same prior count collide
func ClaimWindow(p *Policy, priorClaims int64, at time.Time, resetZone *time.Location) string {
	if p.CooldownSeconds == nil {
		return "seq:" + strconv.FormatInt(priorClaims+1, 10)
	}
	if *p.CooldownSeconds == DailyCooldownSeconds {
		return at.In(resetZone).Format("2006-01-02")
	}
	return strconv.FormatInt(at.Unix() / *p.CooldownSeconds, 10)
}

// SameLocalDay reports whether both instants fall on one calendar date in
// the given zone
func SameLocalDay(a, b time.Time, zone *time.Location) bool {
	ay, am, ad := a.In(zone).Date()
	by, bm, bd := b.In(zone).Date()
	return ay == by && am == bm && ad == bd
}

// NextDailyReset returns the next local midnight after the given instant,
// expressed in UTC
func NextDailyReset(at time.Time, zone *time.Location) time.Time {
	local := at.In(zone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	return midnight.AddDate(0, 0, 1).UTC()
}
