package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReadingDelta описывает показание с приращением относительно предыдущего по времени.
type ReadingDelta struct {
	Reading
	Delta        decimal.Decimal
	ElapsedDays  float64
	DailyAverage float64
}

// ConsumptionStats содержит сводные показатели потребления по счётчику.
type ConsumptionStats struct {
	TotalReadings       int
	TotalConsumption    decimal.Decimal
	AvgDailyConsumption float64
	LatestReading       *decimal.Decimal
}

// MeterAnalytics описывает результат анализа истории показаний одного счётчика.
type MeterAnalytics struct {
	Meter    Meter
	Readings []ReadingDelta
	Stats    ConsumptionStats
}

// DayCount содержит количество показаний за календарный день.
type DayCount struct {
	Day   time.Time
	Count int
}

// MeterRollup содержит агрегаты по показаниям одного счётчика.
type MeterRollup struct {
	MeterID  uuid.UUID
	Code     string
	Location string
	Count    int
	Sum      decimal.Decimal
	Average  decimal.Decimal
}

// ReaderRollup содержит количество показаний, переданных контролёром.
type ReaderRollup struct {
	UserID        uuid.UUID
	Name          string
	Email         string
	ReadingsCount int
}

// AggregateReport содержит сводную аналитику по показаниям за период.
type AggregateReport struct {
	From              time.Time
	To                time.Time
	TotalReadings     int
	ReadingsByDay     []DayCount
	ReadingsByMeter   []MeterRollup
	ReaderPerformance []ReaderRollup
}
