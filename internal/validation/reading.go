// Package validation содержит правила проверки входных данных и показаний счётчиков.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

var (
	// ErrInvalidInput возвращается для некорректного значения или времени показания.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMonotonicityViolation возвращается, если показание накопительного счётчика меньше последнего.
	ErrMonotonicityViolation = errors.New("reading value is less than the previous reading")
)

// ValuePrecision задаёт число знаков после запятой, с которым хранятся показания.
const ValuePrecision = 2

// MaxValue ограничивает значение показания сверху: сотые доли должны помещаться в int64.
var MaxValue = decimal.New(1, 16)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseValue разбирает значение показания и округляет его до двух знаков.
func ParseValue(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty reading value", ErrInvalidInput)
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: reading value must be a number", ErrInvalidInput)
	}

	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: reading value must not be negative", ErrInvalidInput)
	}

	v = v.Round(ValuePrecision)
	if v.GreaterThanOrEqual(MaxValue) {
		return decimal.Zero, fmt.Errorf("%w: reading value must be less than %s", ErrInvalidInput, MaxValue.String())
	}

	return v, nil
}

// ParseTimestamp разбирает время снятия показания. Значения без смещения трактуются в loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty recorded time", ErrInvalidInput)
	}
	if loc == nil {
		loc = time.UTC
	}

	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, loc)
		}
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: invalid date/time format %q", ErrInvalidInput, raw)
}

// CheckReading проверяет кандидата против последнего по времени показания счётчика.
// last равен nil, если показаний ещё нет.
func CheckReading(readingType model.ReadingType, last *model.Reading, candidate decimal.Decimal) error {
	if candidate.IsNegative() {
		return fmt.Errorf("%w: reading value must not be negative", ErrInvalidInput)
	}

	switch readingType {
	case model.ReadingTypeIncreasing:
		if last != nil && candidate.LessThan(last.Value) {
			return fmt.Errorf("%w: %s < %s", ErrMonotonicityViolation,
				candidate.StringFixed(ValuePrecision), last.Value.StringFixed(ValuePrecision))
		}
		return nil
	case model.ReadingTypeNormal:
		return nil
	default:
		return fmt.Errorf("unknown reading type %q", readingType)
	}
}
