package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

// numericString принимает значение показания и как JSON-число, и как строку.
type numericString string

func (n *numericString) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = numericString(num.String())
	return nil
}

func money(v decimal.Decimal) json.Number {
	return json.Number(v.StringFixed(2))
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

type userResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	ContactNumber *string `json:"contact_number,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		ContactNumber: u.ContactNumber,
		CreatedAt:     formatTime(u.CreatedAt),
	}
}

type meterResponse struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	Location       string  `json:"location"`
	Status         string  `json:"status"`
	ReadingType    string  `json:"reading_type"`
	AssignedUserID *string `json:"assigned_user_id"`
	CreatedAt      string  `json:"created_at"`
}

func newMeterResponse(m model.Meter) meterResponse {
	resp := meterResponse{
		ID:          m.ID.String(),
		Code:        m.Code,
		Location:    m.Location,
		Status:      string(m.Status),
		ReadingType: string(m.ReadingType),
		CreatedAt:   formatTime(m.CreatedAt),
	}
	if m.AssignedUserID != nil {
		id := m.AssignedUserID.String()
		resp.AssignedUserID = &id
	}
	return resp
}

type readingResponse struct {
	ID         string      `json:"id"`
	MeterID    string      `json:"meter_id"`
	UserID     string      `json:"user_id"`
	Value      json.Number `json:"value"`
	RecordedAt string      `json:"recorded_at"`
	CreatedAt  string      `json:"created_at"`
}

func newReadingResponse(r model.Reading) readingResponse {
	return readingResponse{
		ID:         r.ID.String(),
		MeterID:    r.MeterID.String(),
		UserID:     r.UserID.String(),
		Value:      money(r.Value),
		RecordedAt: formatTime(r.RecordedAt),
		CreatedAt:  formatTime(r.CreatedAt),
	}
}

type readingDeltaResponse struct {
	readingResponse
	Delta        json.Number `json:"delta"`
	ElapsedDays  float64     `json:"elapsed_days"`
	DailyAverage float64     `json:"daily_average"`
}

type statsResponse struct {
	TotalReadings       int          `json:"total_readings"`
	TotalConsumption    json.Number  `json:"total_consumption"`
	AvgDailyConsumption float64      `json:"avg_daily_consumption"`
	LatestReading       *json.Number `json:"latest_reading"`
}

type meterAnalyticsResponse struct {
	Meter    meterResponse          `json:"meter"`
	Readings []readingDeltaResponse `json:"readings"`
	Stats    statsResponse          `json:"stats"`
}

func newMeterAnalyticsResponse(a *model.MeterAnalytics) meterAnalyticsResponse {
	resp := meterAnalyticsResponse{
		Meter:    newMeterResponse(a.Meter),
		Readings: make([]readingDeltaResponse, 0, len(a.Readings)),
		Stats: statsResponse{
			TotalReadings:       a.Stats.TotalReadings,
			TotalConsumption:    money(a.Stats.TotalConsumption),
			AvgDailyConsumption: a.Stats.AvgDailyConsumption,
		},
	}
	if a.Stats.LatestReading != nil {
		latest := money(*a.Stats.LatestReading)
		resp.Stats.LatestReading = &latest
	}
	for _, d := range a.Readings {
		resp.Readings = append(resp.Readings, readingDeltaResponse{
			readingResponse: newReadingResponse(d.Reading),
			Delta:           money(d.Delta),
			ElapsedDays:     d.ElapsedDays,
			DailyAverage:    d.DailyAverage,
		})
	}
	return resp
}

type dayCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type meterRollupResponse struct {
	MeterID  string      `json:"meter_id"`
	Code     string      `json:"code"`
	Location string      `json:"location"`
	Count    int         `json:"count"`
	Sum      json.Number `json:"sum"`
	Average  json.Number `json:"average"`
}

type readerRollupResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ReadingsCount int    `json:"readings_count"`
}

type summaryResponse struct {
	From              string                 `json:"from"`
	To                string                 `json:"to"`
	TotalReadings     int                    `json:"total_readings"`
	ReadingsByDay     []dayCountResponse     `json:"readings_by_day"`
	ReadingsByMeter   []meterRollupResponse  `json:"readings_by_meter"`
	ReaderPerformance []readerRollupResponse `json:"reader_performance"`
}

func newSummaryResponse(rep *model.AggregateReport) summaryResponse {
	resp := summaryResponse{
		From:              formatTime(rep.From),
		To:                formatTime(rep.To),
		TotalReadings:     rep.TotalReadings,
		ReadingsByDay:     make([]dayCountResponse, 0, len(rep.ReadingsByDay)),
		ReadingsByMeter:   make([]meterRollupResponse, 0, len(rep.ReadingsByMeter)),
		ReaderPerformance: make([]readerRollupResponse, 0, len(rep.ReaderPerformance)),
	}
	for _, d := range rep.ReadingsByDay {
		resp.ReadingsByDay = append(resp.ReadingsByDay, dayCountResponse{Date: d.Day.Format(time.DateOnly), Count: d.Count})
	}
	for _, m := range rep.ReadingsByMeter {
		resp.ReadingsByMeter = append(resp.ReadingsByMeter, meterRollupResponse{
			MeterID:  m.MeterID.String(),
			Code:     m.Code,
			Location: m.Location,
			Count:    m.Count,
			Sum:      money(m.Sum),
			Average:  money(m.Average),
		})
	}
	for _, u := range rep.ReaderPerformance {
		resp.ReaderPerformance = append(resp.ReaderPerformance, readerRollupResponse{
			UserID:        u.UserID.String(),
			Name:          u.Name,
			Email:         u.Email,
			ReadingsCount: u.ReadingsCount,
		})
	}
	return resp
}
