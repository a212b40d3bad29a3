package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/analytics"
	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/service"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

const (
	defaultReadingsLimit = 100
	maxReadingsLimit     = 1000
)

type submitReadingRequest struct {
	MeterID    string        `json:"meter_id"`
	Value      numericString `json:"value"`
	RecordedAt string        `json:"recorded_at"`
}

// SubmitReading принимает показание от текущего пользователя.
func (h *Handler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req submitReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meterID, err := uuid.Parse(req.MeterID)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid meter id")
		return
	}

	reading, err := h.service.SubmitReading(r.Context(), meterID, actor.UserID, string(req.Value), req.RecordedAt)
	if err != nil {
		h.writeError(w, err, "submit reading",
			zap.String("meter_id", meterID.String()),
			zap.String("user_id", actor.UserID.String()),
		)
		return
	}

	h.writeJSON(w, http.StatusCreated, newReadingResponse(*reading))
}

// ListReadings возвращает показания, начиная с новых.
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	f, err := h.readingFilter(r)
	if err != nil {
		h.writeError(w, err, "list readings")
		return
	}

	limit := defaultReadingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxReadingsLimit)
	}

	readings, err := h.service.ListReadings(r.Context(), actor, f, limit)
	if err != nil {
		h.writeError(w, err, "list readings", zap.String("user_id", actor.UserID.String()))
		return
	}

	resp := make([]readingResponse, 0, len(readings))
	for _, rd := range readings {
		resp = append(resp, newReadingResponse(rd))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ListMeters возвращает счётчики, видимые текущему пользователю.
func (h *Handler) ListMeters(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	meters, err := h.service.ListMeters(r.Context(), actor)
	if err != nil {
		h.writeError(w, err, "list meters", zap.String("user_id", actor.UserID.String()))
		return
	}

	resp := make([]meterResponse, 0, len(meters))
	for _, m := range meters {
		resp = append(resp, newMeterResponse(m))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// MeterAnalytics возвращает историю счётчика с приращениями и статистикой потребления.
func (h *Handler) MeterAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	res, err := h.service.AnalyzeMeter(r.Context(), meterID, actor)
	if err != nil {
		h.writeError(w, err, "analyze meter", zap.String("meter_id", meterID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, newMeterAnalyticsResponse(res))
}

// Summary возвращает сводный отчёт по показаниям за период.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := h.service.Location()

	req := service.SummaryRequest{Range: analytics.Range(q.Get("range"))}

	var err error
	if req.From, err = parseDateParam(q.Get("from"), loc); err != nil {
		h.writeError(w, err, "summary")
		return
	}
	if req.To, err = parseDateParam(q.Get("to"), loc); err != nil {
		h.writeError(w, err, "summary")
		return
	}
	if req.MeterID, err = parseUUIDParam(q.Get("meter_id")); err != nil {
		h.writeError(w, err, "summary")
		return
	}
	if req.UserID, err = parseUUIDParam(q.Get("user_id")); err != nil {
		h.writeError(w, err, "summary")
		return
	}

	report, err := h.service.Summarize(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "summary")
		return
	}

	h.writeJSON(w, http.StatusOK, newSummaryResponse(report))
}

// readingFilter собирает фильтр из параметров from, to, meter_id и user_id.
// Даты включают день целиком.
func (h *Handler) readingFilter(r *http.Request) (model.ReadingFilter, error) {
	q := r.URL.Query()
	loc := h.service.Location()

	var f model.ReadingFilter
	from, err := parseDateParam(q.Get("from"), loc)
	if err != nil {
		return f, err
	}
	if from != nil {
		f.From = analytics.StartOfDay(*from)
	}

	to, err := parseDateParam(q.Get("to"), loc)
	if err != nil {
		return f, err
	}
	if to != nil {
		f.To = analytics.EndOfDay(*to)
	}

	if f.MeterID, err = parseUUIDParam(q.Get("meter_id")); err != nil {
		return f, err
	}
	if f.UserID, err = parseUUIDParam(q.Get("user_id")); err != nil {
		return f, err
	}
	return f, nil
}

func parseDateParam(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return &t, nil
	}
	t, err := validation.ParseTimestamp(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseUUIDParam(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", validation.ErrInvalidInput, raw)
	}
	return &id, nil
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
