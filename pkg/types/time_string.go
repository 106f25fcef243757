package types

import (
	"errors"
	"fmt"
	"time"
)

// TimeFormat формат времени HH:MM
const TimeFormat = "15:04"

// ErrInvalidTimeString возвращается при некорректном формате строки времени
var ErrInvalidTimeString = errors.New("types: invalid time string format")

// TimeString время суток в формате "HH:MM" (naive, без даты и зоны)
// Хранится в БД как текст, сравнивается лексикографически-безопасно через минуты
type TimeString string

// NewTimeString создает TimeString из time.Time (берет только часы и минуты)
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format(TimeFormat))
}

// NewTimeStringFromString парсит строку "HH:MM" в TimeString
func NewTimeStringFromString(s string) (TimeString, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	return NewTimeString(t), nil
}

// String возвращает строковое представление "HH:MM"
func (ts TimeString) String() string {
	return string(ts)
}

// IsZero проверяет, что значение не задано
func (ts TimeString) IsZero() bool {
	return ts == ""
}

// Validate проверяет формат значения
func (ts TimeString) Validate() error {
	_, err := ts.TotalMinutes()
	return err
}

// TotalMinutes возвращает количество минут с начала суток
func (ts TimeString) TotalMinutes() (int, error) {
	t, err := time.Parse(TimeFormat, string(ts))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(ts))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AddMinutes возвращает время через n минут (в пределах суток, без переноса даты)
func (ts TimeString) AddMinutes(n int) (TimeString, error) {
	total, err := ts.TotalMinutes()
	if err != nil {
		return "", err
	}
	total += n
	if total < 0 || total > 24*60 {
		return "", fmt.Errorf("%w: %q + %d minutes leaves the day", ErrInvalidTimeString, string(ts), n)
	}
	// 24:00 допускаем как конец суток
	if total == 24*60 {
		return TimeString("24:00"), nil
	}
	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

// IsBefore проверяет строгое "раньше"
func (ts TimeString) IsBefore(other TimeString) bool {
	a, errA := ts.minutesLenient()
	b, errB := other.minutesLenient()
	if errA != nil || errB != nil {
		return false
	}
	return a < b
}

// IsAfter проверяет строгое "позже"
func (ts TimeString) IsAfter(other TimeString) bool {
	a, errA := ts.minutesLenient()
	b, errB := other.minutesLenient()
	if errA != nil || errB != nil {
		return false
	}
	return a > b
}

// MinutesUntil возвращает разницу other - ts в минутах
func (ts TimeString) MinutesUntil(other TimeString) (int, error) {
	a, err := ts.minutesLenient()
	if err != nil {
		return 0, err
	}
	b, err := other.minutesLenient()
	if err != nil {
		return 0, err
	}
	return b - a, nil
}

// On совмещает дату и время суток в указанной зоне
func (ts TimeString) On(date time.Time, loc *time.Location) (time.Time, error) {
	total, err := ts.minutesLenient()
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	base := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return base.Add(time.Duration(total) * time.Minute), nil
}

// minutesLenient как TotalMinutes, но принимает "24:00" как конец суток
func (ts TimeString) minutesLenient() (int, error) {
	if ts == "24:00" {
		return 24 * 60, nil
	}
	return ts.TotalMinutes()
}
