package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/meter-reading-system/internal/analytics"
	"github.com/mmeshcher/meter-reading-system/internal/events"
	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

// SubmitReading проверяет и сохраняет новое показание контролёра.
// Проверки выполняются по порядку: формат значения и времени, закрепление счётчика,
// монотонность для накопительных счётчиков.
func (s *Service) SubmitReading(ctx context.Context, meterID, readerID uuid.UUID, rawValue, rawRecordedAt string) (*model.Reading, error) {
	value, err := validation.ParseValue(rawValue)
	if err != nil {
		return nil, err
	}
	recordedAt, err := validation.ParseTimestamp(rawRecordedAt, s.Location())
	if err != nil {
		return nil, err
	}

	reading := &model.Reading{
		ID:         uuid.New(),
		MeterID:    meterID,
		UserID:     readerID,
		Value:      value,
		RecordedAt: recordedAt,
	}

	if s.serialize {
		err = s.repo.CreateReadingSerialized(ctx, reading, func(meter *model.Meter, last *model.Reading) error {
			return checkSubmission(meter, readerID, last, value)
		})
		if errors.Is(err, repository.ErrMeterNotFound) {
			err = ErrNotAssigned
		}
	} else {
		err = s.submitUnlocked(ctx, reading)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("reading accepted",
		zap.String("reading_id", reading.ID.String()),
		zap.String("meter_id", meterID.String()),
		zap.String("user_id", readerID.String()),
	)

	if err := s.publisher.PublishReadingAccepted(ctx, events.NewReadingAccepted(*reading)); err != nil {
		s.logger.Error("publish reading event", zap.Error(err), zap.String("reading_id", reading.ID.String()))
	}

	return reading, nil
}

// submitUnlocked читает последнее показание и записывает новое отдельными операциями
// без общей транзакции.
func (s *Service) submitUnlocked(ctx context.Context, reading *model.Reading) error {
	meter, err := s.repo.GetMeter(ctx, reading.MeterID)
	if err != nil {
		if errors.Is(err, repository.ErrMeterNotFound) {
			return ErrNotAssigned
		}
		return fmt.Errorf("get meter: %w", err)
	}
	if !meter.AssignedTo(reading.UserID) {
		return ErrNotAssigned
	}

	var last *model.Reading
	if meter.ReadingType == model.ReadingTypeIncreasing {
		last, err = s.repo.LatestReading(ctx, meter.ID)
		if err != nil {
			return fmt.Errorf("get latest reading: %w", err)
		}
	}

	if err := validation.CheckReading(meter.ReadingType, last, reading.Value); err != nil {
		return err
	}

	if err := s.repo.CreateReading(ctx, reading); err != nil {
		return fmt.Errorf("create reading: %w", err)
	}
	return nil
}

func checkSubmission(meter *model.Meter, readerID uuid.UUID, last *model.Reading, value decimal.Decimal) error {
	if !meter.AssignedTo(readerID) {
		return ErrNotAssigned
	}
	return validation.CheckReading(meter.ReadingType, last, value)
}

// AnalyzeMeter возвращает историю показаний счётчика с приращениями и сводной статистикой.
func (s *Service) AnalyzeMeter(ctx context.Context, meterID uuid.UUID, actor model.Actor) (*model.MeterAnalytics, error) {
	meter, err := s.repo.GetMeter(ctx, meterID)
	if err != nil {
		return nil, err
	}

	if err := authorizeMeterView(meter, actor); err != nil {
		return nil, err
	}

	readings, err := s.repo.ReadingsByMeter(ctx, meterID)
	if err != nil {
		return nil, fmt.Errorf("get meter readings: %w", err)
	}

	deltas, stats := analytics.Consumption(readings)

	return &model.MeterAnalytics{
		Meter:    *meter,
		Readings: deltas,
		Stats:    stats,
	}, nil
}

func authorizeMeterView(meter *model.Meter, actor model.Actor) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleReader:
		if meter.Status != model.MeterStatusEnabled || !meter.AssignedTo(actor.UserID) {
			return ErrAccessDenied
		}
		return nil
	default:
		return ErrAccessDenied
	}
}

// SummaryRequest содержит параметры сводного отчёта.
type SummaryRequest struct {
	Range   analytics.Range
	From    *time.Time
	To      *time.Time
	MeterID *uuid.UUID
	UserID  *uuid.UUID
}

// Summarize строит сводный отчёт по показаниям за период. Агрегаты не зависят
// друг от друга и запрашиваются параллельно.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (*model.AggregateReport, error) {
	now := s.clock.Now()
	window, err := analytics.ResolveWindow(req.Range, now, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrInvalidInput, err)
	}

	filter := model.ReadingFilter{
		From:    window.From,
		To:      window.To,
		MeterID: req.MeterID,
		UserID:  req.UserID,
	}

	report := &model.AggregateReport{From: window.From, To: window.To}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountReadings(gctx, filter)
		report.TotalReadings = n
		return err
	})
	g.Go(func() error {
		days, err := s.repo.ReadingsByDay(gctx, filter, now.Location())
		report.ReadingsByDay = days
		return err
	})
	g.Go(func() error {
		meters, err := s.repo.MeterRollups(gctx, filter)
		for i := range meters {
			meters[i].Average = averageOf(meters[i].Sum, meters[i].Count)
		}
		report.ReadingsByMeter = meters
		return err
	})
	g.Go(func() error {
		readers, err := s.repo.ReaderRollups(gctx, filter)
		report.ReaderPerformance = readers
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize readings: %w", err)
	}

	return report, nil
}

func averageOf(sum decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(int64(count)), validation.ValuePrecision)
}

// ListReadings возвращает показания, начиная с новых. Контролёр видит только свои показания.
func (s *Service) ListReadings(ctx context.Context, actor model.Actor, f model.ReadingFilter, limit int) ([]model.Reading, error) {
	if !actor.IsAdmin() {
		id := actor.UserID
		f.UserID = &id
	}
	return s.repo.ListReadings(ctx, f, limit)
}
