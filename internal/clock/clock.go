// Package clock предоставляет источник текущего времени сервера.
package clock

import "time"

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает системное время в заданном часовом поясе.
type SystemClock struct {
	Location *time.Location
}

// Now возвращает текущее время в часовом поясе часов.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Fixed всегда возвращает один и тот же момент.
type Fixed time.Time

// Now возвращает зафиксированный момент.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
