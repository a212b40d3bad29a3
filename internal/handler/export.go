package handler

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/export"
	"github.com/mmeshcher/meter-reading-system/internal/middleware"
)

// ExportReadings отдаёт CSV с показаниями по фильтру из параметров запроса.
func (h *Handler) ExportReadings(w http.ResponseWriter, r *http.Request) {
	f, err := h.readingFilter(r)
	if err != nil {
		h.writeError(w, err, "export readings")
		return
	}

	rows, err := h.service.ExportReadings(r.Context(), f)
	if err != nil {
		h.writeError(w, err, "export readings")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReadings(&buf, rows); err != nil {
		h.writeError(w, err, "export readings")
		return
	}

	h.writeCSV(w, export.Filename("meter-readings", h.now()), buf.Bytes())
}

// ExportMeter отдаёт CSV с историей одного счётчика.
func (h *Handler) ExportMeter(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	meterID, ok := h.pathUUID(w, r, "meterID")
	if !ok {
		return
	}

	res, err := h.service.AnalyzeMeter(r.Context(), meterID, actor)
	if err != nil {
		h.writeError(w, err, "export meter", zap.String("meter_id", meterID.String()))
		return
	}

	names, err := h.service.UserNames(r.Context())
	if err != nil {
		h.writeError(w, err, "export meter", zap.String("meter_id", meterID.String()))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMeterHistory(&buf, res, names); err != nil {
		h.writeError(w, err, "export meter", zap.String("meter_id", meterID.String()))
		return
	}

	h.writeCSV(w, export.Filename("meter-"+res.Meter.Code, h.now()), buf.Bytes())
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write csv", zap.Error(err))
	}
}
