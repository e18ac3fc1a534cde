package bonus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var seoulOffset = time.FixedZone("UTC+9", 9*60*60)

func dailyPolicy() *Policy {
	cooldown := int64(DailyCooldownSeconds)
	return &Policy{ID: 2, Code: "daily_visit", CooldownSeconds: &cooldown}
}

func rollingPolicy(seconds int64) *Policy {
	return &Policy{ID: 3, Code: "hourly", CooldownSeconds: &seconds}
}

func oneTimePolicy() *Policy {
	return &Policy{ID: 1, Code: "signup"}
}

func TestClaimWindow(t *testing.T) {
	t.Run("DailyPolicyUsesLocalCalendarDate", func(t *testing.T) {
		// 2026-08-28 20:00 UTC is already 2026-08-29 in UTC+9
		at := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
		assert.Equal(t, "2026-08-29", ClaimWindow(dailyPolicy(), 0, at, seoulOffset))
	})

	t.Run("DailyPolicySameLocalDayCollides", func(t *testing.T) {
		morning := time.Date(2026, 8, 28, 1, 0, 0, 0, time.UTC)
		evening := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
		assert.Equal(t,
			ClaimWindow(dailyPolicy(), 0, morning, seoulOffset),
			ClaimWindow(dailyPolicy(), 1, evening, seoulOffset),
		)
	})

	t.Run("DailyPolicyCrossingLocalMidnightDiffers", func(t *testing.T) {
		// 14:59 UTC is 23:59 local; 15:01 UTC is 00:01 the next local day
		beforeMidnight := time.Date(2026, 8, 28, 14, 59, 0, 0, time.UTC)
		afterMidnight := time.Date(2026, 8, 28, 15, 1, 0, 0, time.UTC)
		assert.NotEqual(t,
			ClaimWindow(dailyPolicy(), 0, beforeMidnight, seoulOffset),
			ClaimWindow(dailyPolicy(), 1, afterMidnight, seoulOffset),
		)
	})

	t.Run("RollingPolicyBucketsByCooldownWidth", func(t *testing.T) {
		p := rollingPolicy(3600)
		base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		within := base.Add(30 * time.Minute)
		assert.Equal(t, ClaimWindow(p, 0, base, seoulOffset), ClaimWindow(p, 0, within, seoulOffset))

		next := base.Add(time.Hour)
		assert.NotEqual(t, ClaimWindow(p, 0, base, seoulOffset), ClaimWindow(p, 1, next, seoulOffset))
	})

	t.Run("NoCooldownUsesClaimOrdinal", func(t *testing.T) {
		at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, "seq:1", ClaimWindow(oneTimePolicy(), 0, at, seoulOffset))
		assert.Equal(t, "seq:2", ClaimWindow(oneTimePolicy(), 1, at, seoulOffset))
	})
}

func TestSameLocalDay(t *testing.T) {
	t.Run("SameUTCDayDifferentLocalDay", func(t *testing.T) {
		a := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		b := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
		assert.True(t, SameLocalDay(a, b, time.UTC))
		assert.False(t, SameLocalDay(a, b, seoulOffset))
	})

	t.Run("DifferentUTCDaySameLocalDay", func(t *testing.T) {
		a := time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)
		b := time.Date(2026, 8, 29, 2, 0, 0, 0, time.UTC)
		assert.False(t, SameLocalDay(a, b, time.UTC))
		assert.True(t, SameLocalDay(a, b, seoulOffset))
	})
}

func TestNextDailyReset(t *testing.T) {
	// 12:00 UTC on Aug 28 is 21:00 local; the next local midnight is
	// Aug 29 00:00 local, which is Aug 28 15:00 UTC
	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	next := NextDailyReset(at, seoulOffset)
	assert.Equal(t, time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC), next)

	// Just after local midnight the reset moves a full day out
	at = time.Date(2026, 8, 28, 15, 1, 0, 0, time.UTC)
	next = NextDailyReset(at, seoulOffset)
	assert.Equal(t, time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC), next)
}
