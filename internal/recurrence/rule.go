package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Frequency supported recurrence frequencies.
type Frequency string

const (
	// FrequencyWeekly generates occurrences every Interval weeks, optionally
	// restricted to a weekday set.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiweekly is weekly with the interval forced to 2.
	FrequencyBiweekly Frequency = "biweekly"
	// FrequencyMonthly generates occurrences every Interval months, optionally
	// pinned to a day of month. Months lacking that day are skipped.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyCustom generates occurrences every Interval days.
	FrequencyCustom Frequency = "custom"
)

// EndType bounds a rule's expansion.
type EndType string

const (
	// EndOnDate stops at EndDate inclusive.
	EndOnDate EndType = "on_date"
	// EndAfterOccurrences stops after Occurrences datetimes.
	EndAfterOccurrences EndType = "after_occurrences"
)

// Защита от патологических правил: дальше этого количества дней от старта
// расширение не уходит
const maxExpansionDays = 5 * 366

var (
	// ErrRuleInvalid indicates an inconsistent or unbounded rule.
	ErrRuleInvalid = errors.New("recurrence: invalid rule")
)

// Rule describes a recurrence as pure data, independent of any calendar
// library. Expansion starts at DTStart (the parent booking's date + start
// time) and proceeds chronologically.
type Rule struct {
	Frequency  Frequency
	Interval   int            // каждые N недель/месяцев/дней; >= 1
	Weekdays   []time.Weekday // weekly/biweekly
	DayOfMonth int            // monthly; 0 = не задан (день берется из DTStart)
	EndType    EndType
	EndDate    time.Time // on_date, включительно
	Count      int       // after_occurrences
}

// Validate reports whether the rule is internally consistent and bounded.
func (r Rule) Validate() error {
	switch r.Frequency {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyCustom:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrRuleInvalid, r.Frequency)
	}

	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1", ErrRuleInvalid)
	}

	switch r.EndType {
	case EndOnDate:
		if r.EndDate.IsZero() {
			return fmt.Errorf("%w: end date is required for on_date", ErrRuleInvalid)
		}
	case EndAfterOccurrences:
		if r.Count < 1 {
			return fmt.Errorf("%w: occurrence count must be >= 1", ErrRuleInvalid)
		}
	default:
		// Бессрочные серии не расширяются
		return fmt.Errorf("%w: unbounded rule (end type %q)", ErrRuleInvalid, r.EndType)
	}

	if r.Frequency == FrequencyMonthly && r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
		return fmt.Errorf("%w: day of month must be 1-31", ErrRuleInvalid)
	}

	if len(r.Weekdays) > 0 && r.Frequency != FrequencyWeekly && r.Frequency != FrequencyBiweekly {
		return fmt.Errorf("%w: weekday set is only valid for weekly frequencies", ErrRuleInvalid)
	}

	return nil
}

// Expand evaluates the rule into a finite ordered sequence of occurrence
// datetimes, starting at dtstart. The time-of-day of every occurrence equals
// dtstart's. For EndOnDate the bound is combine(EndDate, dtstart.time)
// inclusive.
func Expand(rule Rule, dtstart time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	interval := rule.Interval
	if rule.Frequency == FrequencyBiweekly {
		// biweekly всегда раз в две недели, сохраненный interval игнорируется
		interval = 2
	}

	var until time.Time
	if rule.EndType == EndOnDate {
		until = time.Date(
			rule.EndDate.Year(), rule.EndDate.Month(), rule.EndDate.Day(),
			dtstart.Hour(), dtstart.Minute(), 0, 0, dtstart.Location(),
		)
		if until.Before(dtstart) {
			return nil, fmt.Errorf("%w: end date precedes start", ErrRuleInvalid)
		}
	}

	within := func(t time.Time, emitted int) bool {
		if rule.EndType == EndAfterOccurrences {
			return emitted < rule.Count
		}
		return !t.After(until)
	}

	switch rule.Frequency {
	case FrequencyCustom:
		return expandDaily(dtstart, interval, within), nil
	case FrequencyMonthly:
		return expandMonthly(dtstart, interval, rule.DayOfMonth, within), nil
	default:
		return expandWeekly(dtstart, interval, rule.Weekdays, within), nil
	}
}

func expandDaily(dtstart time.Time, interval int, within func(time.Time, int) bool) []time.Time {
	out := make([]time.Time, 0)
	horizon := dtstart.AddDate(0, 0, maxExpansionDays)

	for cur := dtstart; within(cur, len(out)) && !cur.After(horizon); cur = cur.AddDate(0, 0, interval) {
		out = append(out, cur)
	}
	return out
}

func expandWeekly(dtstart time.Time, interval int, weekdays []time.Weekday, within func(time.Time, int) bool) []time.Time {
	out := make([]time.Time, 0)
	horizon := dtstart.AddDate(0, 0, maxExpansionDays)

	if len(weekdays) == 0 {
		// Без набора дней — шаг ровно interval недель от старта
		for cur := dtstart; within(cur, len(out)) && !cur.After(horizon); cur = cur.AddDate(0, 0, 7*interval) {
			out = append(out, cur)
		}
		return out
	}

	selected := make(map[time.Weekday]struct{}, len(weekdays))
	for _, d := range weekdays {
		selected[d] = struct{}{}
	}

	startWeek := weekStart(dtstart)
	for cur := dtstart; !cur.After(horizon); cur = cur.AddDate(0, 0, 1) {
		if _, ok := selected[cur.Weekday()]; !ok {
			continue
		}
		// Неделя должна попадать в шаг interval от недели старта
		weeks := int(weekStart(cur).Sub(startWeek).Hours()) / (24 * 7)
		if weeks%interval != 0 {
			continue
		}
		if !within(cur, len(out)) {
			break
		}
		out = append(out, cur)
	}
	return out
}

func expandMonthly(dtstart time.Time, interval int, dayOfMonth int, within func(time.Time, int) bool) []time.Time {
	out := make([]time.Time, 0)
	horizon := dtstart.AddDate(0, 0, maxExpansionDays)

	day := dayOfMonth
	if day == 0 {
		day = dtstart.Day()
	}

	year, month := dtstart.Year(), dtstart.Month()
	for {
		candidate := time.Date(year, month, day,
			dtstart.Hour(), dtstart.Minute(), 0, 0, dtstart.Location())

		if candidate.After(horizon) {
			break
		}

		// Месяцы, где такого дня нет, пропускаются (time.Date нормализует
		// 31 февраля в март - это и есть признак пропуска)
		if candidate.Day() == day && !candidate.Before(dtstart) {
			if !within(candidate, len(out)) {
				break
			}
			out = append(out, candidate)
		}

		month += time.Month(interval)
		for month > 12 {
			month -= 12
			year++
		}
	}
	return out
}

// weekStart возвращает понедельник недели даты (00:00 не нормализуем,
// важна только разница в целых неделях)
func weekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	// Weekday: Sunday=0; неделя считается с понедельника
	offset := (wd + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}
