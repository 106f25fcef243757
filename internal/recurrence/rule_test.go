package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dt(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestRule_Validate(t *testing.T) {
	t.Run("valid weekly on_date", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  1,
			EndType:   EndOnDate,
			EndDate:   dt(2025, time.July, 1, 0, 0),
		}
		assert.NoError(t, rule.Validate())
	})

	t.Run("unknown frequency", func(t *testing.T) {
		rule := Rule{Frequency: "yearly", Interval: 1, EndType: EndAfterOccurrences, Count: 3}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("zero interval", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyWeekly, Interval: 0, EndType: EndAfterOccurrences, Count: 3}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("unbounded rule rejected", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, EndType: "never"}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("on_date without end date", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, EndType: EndOnDate}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("after_occurrences without count", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, EndType: EndAfterOccurrences}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("day of month out of range", func(t *testing.T) {
		rule := Rule{
			Frequency:  FrequencyMonthly,
			Interval:   1,
			DayOfMonth: 32,
			EndType:    EndAfterOccurrences,
			Count:      3,
		}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})

	t.Run("weekday set on monthly rejected", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyMonthly,
			Interval:  1,
			Weekdays:  []time.Weekday{time.Monday},
			EndType:   EndAfterOccurrences,
			Count:     3,
		}
		assert.ErrorIs(t, rule.Validate(), ErrRuleInvalid)
	})
}

func TestExpand_Weekly(t *testing.T) {
	t.Run("plain weekly steps seven days", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyWeekly, Interval: 1, EndType: EndAfterOccurrences, Count: 3}
		start := dt(2025, time.June, 2, 10, 0) // понедельник

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 2, 10, 0),
			dt(2025, time.June, 9, 10, 0),
			dt(2025, time.June, 16, 10, 0),
		}, got)
	})

	t.Run("weekday set within start week", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  1,
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			EndType:   EndAfterOccurrences,
			Count:     4,
		}
		start := dt(2025, time.June, 2, 10, 0) // понедельник

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 2, 10, 0),
			dt(2025, time.June, 4, 10, 0),
			dt(2025, time.June, 9, 10, 0),
			dt(2025, time.June, 11, 10, 0),
		}, got)
	})

	t.Run("start mid-week skips earlier weekdays", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  1,
			Weekdays:  []time.Weekday{time.Monday, time.Friday},
			EndType:   EndAfterOccurrences,
			Count:     3,
		}
		start := dt(2025, time.June, 4, 9, 30) // среда

		got, err := Expand(rule, start)
		require.NoError(t, err)

		// Понедельник той же недели уже в прошлом
		assert.Equal(t, []time.Time{
			dt(2025, time.June, 6, 9, 30),
			dt(2025, time.June, 9, 9, 30),
			dt(2025, time.June, 13, 9, 30),
		}, got)
	})

	t.Run("interval two selects alternating weeks", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  2,
			Weekdays:  []time.Weekday{time.Tuesday},
			EndType:   EndAfterOccurrences,
			Count:     3,
		}
		start := dt(2025, time.June, 3, 18, 0) // вторник

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 3, 18, 0),
			dt(2025, time.June, 17, 18, 0),
			dt(2025, time.July, 1, 18, 0),
		}, got)
	})

	t.Run("on_date bound is inclusive", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  1,
			EndType:   EndOnDate,
			EndDate:   dt(2025, time.June, 16, 0, 0),
		}
		start := dt(2025, time.June, 2, 10, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		require.Len(t, got, 3)
		assert.Equal(t, dt(2025, time.June, 16, 10, 0), got[2])
	})

	t.Run("end date before start is invalid", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyWeekly,
			Interval:  1,
			EndType:   EndOnDate,
			EndDate:   dt(2025, time.May, 1, 0, 0),
		}

		_, err := Expand(rule, dt(2025, time.June, 2, 10, 0))
		assert.ErrorIs(t, err, ErrRuleInvalid)
	})
}

func TestExpand_Biweekly(t *testing.T) {
	t.Run("interval forced to two", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyBiweekly, Interval: 1, EndType: EndAfterOccurrences, Count: 3}
		start := dt(2025, time.June, 2, 10, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 2, 10, 0),
			dt(2025, time.June, 16, 10, 0),
			dt(2025, time.June, 30, 10, 0),
		}, got)
	})
}

func TestExpand_Monthly(t *testing.T) {
	t.Run("day taken from start when unset", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyMonthly, Interval: 1, EndType: EndAfterOccurrences, Count: 3}
		start := dt(2025, time.June, 15, 14, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 15, 14, 0),
			dt(2025, time.July, 15, 14, 0),
			dt(2025, time.August, 15, 14, 0),
		}, got)
	})

	t.Run("short months are skipped without clamping", func(t *testing.T) {
		rule := Rule{
			Frequency:  FrequencyMonthly,
			Interval:   1,
			DayOfMonth: 31,
			EndType:    EndAfterOccurrences,
			Count:      4,
		}
		start := dt(2025, time.January, 31, 11, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		// Февраль, апрель и июнь выпадают
		assert.Equal(t, []time.Time{
			dt(2025, time.January, 31, 11, 0),
			dt(2025, time.March, 31, 11, 0),
			dt(2025, time.May, 31, 11, 0),
			dt(2025, time.July, 31, 11, 0),
		}, got)
	})

	t.Run("day before start date excluded", func(t *testing.T) {
		rule := Rule{
			Frequency:  FrequencyMonthly,
			Interval:   1,
			DayOfMonth: 5,
			EndType:    EndAfterOccurrences,
			Count:      2,
		}
		start := dt(2025, time.June, 10, 9, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.July, 5, 9, 0),
			dt(2025, time.August, 5, 9, 0),
		}, got)
	})

	t.Run("interval spans years", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyMonthly,
			Interval:  3,
			EndType:   EndAfterOccurrences,
			Count:     5,
		}
		start := dt(2025, time.October, 1, 8, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, dt(2026, time.October, 1, 8, 0), got[4])
	})
}

func TestExpand_Custom(t *testing.T) {
	t.Run("daily stepping", func(t *testing.T) {
		rule := Rule{Frequency: FrequencyCustom, Interval: 3, EndType: EndAfterOccurrences, Count: 3}
		start := dt(2025, time.June, 2, 7, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)

		assert.Equal(t, []time.Time{
			dt(2025, time.June, 2, 7, 0),
			dt(2025, time.June, 5, 7, 0),
			dt(2025, time.June, 8, 7, 0),
		}, got)
	})

	t.Run("on_date bound honors time of day", func(t *testing.T) {
		rule := Rule{
			Frequency: FrequencyCustom,
			Interval:  1,
			EndType:   EndOnDate,
			EndDate:   dt(2025, time.June, 4, 0, 0),
		}
		start := dt(2025, time.June, 2, 7, 0)

		got, err := Expand(rule, start)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestExpand_Ordering(t *testing.T) {
	rule := Rule{
		Frequency: FrequencyWeekly,
		Interval:  1,
		Weekdays:  []time.Weekday{time.Sunday, time.Monday, time.Saturday},
		EndType:   EndAfterOccurrences,
		Count:     9,
	}
	start := dt(2025, time.June, 2, 10, 0)

	got, err := Expand(rule, start)
	require.NoError(t, err)
	require.Len(t, got, 9)

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].After(got[i-1]), "occurrences must be strictly increasing")
	}
}
