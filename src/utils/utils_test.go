package utils

import (
	"testing"
	"time"

	"jpx-history/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokyo(t *testing.T, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	cal := GetCalendar("T")
	return time.Date(y, m, d, hh, mm, 0, 0, cal.Timezone)
}

func TestTradingDay(t *testing.T) {
	cal := GetCalendar("T")

	assert.True(t, cal.IsTradingDay(tokyo(t, 2024, 6, 14, 12, 0)), "friday")
	assert.False(t, cal.IsTradingDay(tokyo(t, 2024, 6, 15, 12, 0)), "saturday")
	assert.False(t, cal.IsTradingDay(tokyo(t, 2024, 6, 16, 12, 0)), "sunday")
}

func TestLastSession(t *testing.T) {
	cal := GetCalendar("T")

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"weekend rolls back to friday", tokyo(t, 2024, 6, 15, 10, 0), "2024-06-14"},
		{"before close uses previous session", tokyo(t, 2024, 6, 14, 10, 0), "2024-06-13"},
		{"after close uses today", tokyo(t, 2024, 6, 17, 16, 0), "2024-06-17"},
		{"monday morning uses friday", tokyo(t, 2024, 6, 17, 8, 0), "2024-06-14"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cal.LastSession(tc.now).Format("2006-01-02"))
		})
	}
}

func TestLastSessionAcceptsOtherZones(t *testing.T) {
	cal := GetCalendar("O")
	// 2024-06-17 07:00 UTC is 16:00 in Tokyo
	now := time.Date(2024, 6, 17, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-17", cal.LastSession(now).Format("2006-01-02"))
}

// -----------------------------------------------------------------------------

func TestMarketSchedulerSkipsClosedDays(t *testing.T) {
	ms := NewMarketScheduler(GetCalendar("T"), logger.NewSilentLogger())
	assert.False(t, ms.ShouldRun(tokyo(t, 2024, 6, 16, 18, 30)))
	assert.True(t, ms.ShouldRun(tokyo(t, 2024, 6, 14, 18, 30)))
}

func TestMarketSchedulerRejectsBadSpec(t *testing.T) {
	ms := NewMarketScheduler(GetCalendar("T"), logger.NewSilentLogger())
	err := ms.AddTradingDayJob("not a cron", "update", func() {})
	assert.Error(t, err)
	assert.True(t, ms.NextRun().IsZero())
}

func TestMarketSchedulerNextRun(t *testing.T) {
	ms := NewMarketScheduler(GetCalendar("T"), logger.NewSilentLogger())
	require.NoError(t, ms.AddTradingDayJob("30 18 * * 1-5", "update", func() {}))

	ms.Start()
	defer ms.Stop()

	next := ms.NextRun()
	require.False(t, next.IsZero())
	assert.True(t, next.After(time.Now()))
	inTokyo := next.In(ms.Calendar.Timezone)
	assert.Equal(t, 18, inTokyo.Hour())
	assert.Equal(t, 30, inTokyo.Minute())
}

func TestMICForMarket(t *testing.T) {
	for _, m := range []string{"T", "o", "N", "S", "F", ""} {
		mic, ok := MICForMarket(m)
		assert.True(t, ok, m)
		assert.Equal(t, MICTokyo, mic)
	}
	_, ok := MICForMarket("NYSE")
	assert.False(t, ok)
}

func TestWeekdayFallback(t *testing.T) {
	cal := &TradingCalendar{MIC: "zzzz", businessDay: isWeekday}
	assert.True(t, cal.IsTradingDay(tokyo(t, 2024, 1, 1, 12, 0)), "monday, holiday ignored")
	assert.False(t, cal.IsTradingDay(tokyo(t, 2024, 6, 15, 12, 0)))
}
