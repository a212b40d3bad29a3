// Package analytics вычисляет приращения, среднесуточное потребление и периоды отчётов.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

const day = 24 * time.Hour

// Consumption строит приращения по показаниям, упорядоченным по времени снятия,
// и сводные показатели потребления.
func Consumption(readings []model.Reading) ([]model.ReadingDelta, model.ConsumptionStats) {
	deltas := make([]model.ReadingDelta, 0, len(readings))
	total := decimal.Zero
	positiveSteps := 0

	for i, r := range readings {
		d := model.ReadingDelta{Reading: r, Delta: decimal.Zero}

		if i > 0 {
			prev := readings[i-1]
			d.Delta = r.Value.Sub(prev.Value)
			d.ElapsedDays = ElapsedDays(prev.RecordedAt, r.RecordedAt)
			d.DailyAverage = safeDiv(d.Delta.InexactFloat64(), d.ElapsedDays)

			total = total.Add(d.Delta)
			if d.Delta.IsPositive() {
				positiveSteps++
			}
		}

		deltas = append(deltas, d)
	}

	stats := model.ConsumptionStats{
		TotalReadings:    len(readings),
		TotalConsumption: total,
	}

	if len(readings) > 1 && positiveSteps > 0 {
		stats.AvgDailyConsumption = total.Div(decimal.NewFromInt(int64(positiveSteps))).InexactFloat64()
	}

	if n := len(readings); n > 0 {
		latest := readings[n-1].Value
		stats.LatestReading = &latest
	}

	return deltas, stats
}

// ElapsedDays возвращает прошедшее время между двумя моментами в дробных сутках.
func ElapsedDays(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(day)
}

func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
