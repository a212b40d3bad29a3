package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow возвращается при некорректных границах периода.
var ErrInvalidWindow = errors.New("invalid report window")

// Range обозначает предустановленный период отчёта.
type Range string

const (
	RangeToday  Range = "today"
	RangeWeek   Range = "week"
	RangeMonth  Range = "month"
	RangeCustom Range = "custom"
)

// Window описывает период отчёта, обе границы включительно.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains сообщает, попадает ли момент в период.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// ResolveWindow вычисляет границы периода относительно серверного времени now.
// Для RangeCustom используются from и to (от начала первого до конца последнего дня);
// если одна из них не задана, берётся текущий месяц. Пустой диапазон означает месяц.
func ResolveWindow(r Range, now time.Time, from, to *time.Time) (Window, error) {
	switch r {
	case RangeCustom:
		if from == nil || to == nil {
			return monthOf(now), nil
		}
		fromLocal := from.In(now.Location())
		toLocal := to.In(now.Location())
		w := Window{From: StartOfDay(fromLocal), To: EndOfDay(toLocal)}
		if w.From.After(w.To) {
			return Window{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow,
				w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
		}
		return w, nil
	case RangeToday:
		return Window{From: StartOfDay(now), To: EndOfDay(now)}, nil
	case RangeWeek:
		start := StartOfDay(now).AddDate(0, 0, -int(now.Weekday()))
		return Window{From: start, To: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}, nil
	case RangeMonth, "":
		return monthOf(now), nil
	default:
		return Window{}, fmt.Errorf("%w: unknown range %q", ErrInvalidWindow, r)
	}
}

func monthOf(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{From: start, To: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// StartOfDay возвращает полночь дня t в его часовом поясе.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay возвращает последний момент дня t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
