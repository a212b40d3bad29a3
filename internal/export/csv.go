// Package export формирует выгрузки показаний в формате CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

// ContentType задаёт MIME-тип выгрузок.
const ContentType = "text/csv; charset=utf-8"

// ReadingRow описывает строку выгрузки показаний.
type ReadingRow struct {
	Reading     model.Reading
	MeterCode   string
	Location    string
	ReaderName  string
	ReaderEmail string
}

// WriteReadings записывает показания в CSV.
func WriteReadings(w io.Writer, rows []ReadingRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"Reading ID", "Meter Code", "Location", "Reading Value", "Recorded At", "Recorded By", "Reader Email",
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Reading.ID.String(),
			row.MeterCode,
			row.Location,
			row.Reading.Value.StringFixed(2),
			row.Reading.RecordedAt.UTC().Format(time.RFC3339),
			row.ReaderName,
			row.ReaderEmail,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write reading %s: %w", row.Reading.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMeterHistory записывает сведения о счётчике и историю его показаний с приращениями.
// names сопоставляет идентификаторы пользователей с именами.
func WriteMeterHistory(w io.Writer, a *model.MeterAnalytics, names map[uuid.UUID]string) error {
	cw := csv.NewWriter(w)

	assigned := "Unassigned"
	if a.Meter.AssignedUserID != nil {
		if name, ok := names[*a.Meter.AssignedUserID]; ok {
			assigned = name
		}
	}

	latest := ""
	if a.Stats.LatestReading != nil {
		latest = a.Stats.LatestReading.StringFixed(2)
	}

	records := [][]string{
		{"Meter Information"},
		{"Meter Code", a.Meter.Code},
		{"Location", a.Meter.Location},
		{"Status", string(a.Meter.Status)},
		{"Reading Type", string(a.Meter.ReadingType)},
		{"Assigned To", assigned},
		{"Total Readings", strconv.Itoa(a.Stats.TotalReadings)},
		{"Total Consumption", a.Stats.TotalConsumption.StringFixed(2)},
		{"Average Daily Consumption", strconv.FormatFloat(a.Stats.AvgDailyConsumption, 'f', 2, 64)},
		{"Latest Reading", latest},
		{},
		{"Readings History"},
		{"Date", "Reading Value", "Delta", "Elapsed Days", "Daily Average", "Recorded By"},
	}

	for _, r := range a.Readings {
		records = append(records, []string{
			r.RecordedAt.UTC().Format(time.RFC3339),
			r.Value.StringFixed(2),
			r.Delta.StringFixed(2),
			strconv.FormatFloat(r.ElapsedDays, 'f', 2, 64),
			strconv.FormatFloat(r.DailyAverage, 'f', 2, 64),
			names[r.UserID],
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write meter history: %w", err)
	}
	return nil
}

// Filename возвращает имя файла выгрузки с датой формирования.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.Format(time.DateOnly))
}
