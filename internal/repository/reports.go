package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

// CountReadings возвращает количество показаний по фильтру.
func (r *PostgresRepository) CountReadings(ctx context.Context, f model.ReadingFilter) (int, error) {
	where, args := readingWhere(f)

	var count int64
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM readings`+where, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return int(count), nil
}

// ReadingsByDay возвращает число показаний по календарным дням в часовом поясе loc.
func (r *PostgresRepository) ReadingsByDay(ctx context.Context, f model.ReadingFilter, loc *time.Location) ([]model.DayCount, error) {
	if loc == nil {
		loc = time.UTC
	}
	where, args := readingWhere(f)
	args = append(args, loc.String())
	tzArg := len(args)

	query := fmt.Sprintf(
		`SELECT (recorded_at AT TIME ZONE $%d)::date AS day, COUNT(*)
		 FROM readings%s
		 GROUP BY day
		 ORDER BY day`, tzArg, where)

	var res []model.DayCount
	err := r.withRetry(ctx, func() error {
		res = res[:0]
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				day   time.Time
				count int64
			)
			if err := rows.Scan(&day, &count); err != nil {
				return fmt.Errorf("scan day count: %w", err)
			}
			res = append(res, model.DayCount{
				Day:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
				Count: int(count),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("readings by day: %w", err)
	}
	return res, nil
}

// MeterRollups возвращает количество, сумму и среднее показаний по каждому счётчику.
func (r *PostgresRepository) MeterRollups(ctx context.Context, f model.ReadingFilter) ([]model.MeterRollup, error) {
	where, args := readingWhere(f)
	query := `SELECT m.id, m.code, m.location, COUNT(*), COALESCE(SUM(value_cents), 0)::bigint
		 FROM readings JOIN meters m ON m.id = meter_id` + where + `
		 GROUP BY m.id, m.code, m.location
		 ORDER BY COUNT(*) DESC, m.code`

	var res []model.MeterRollup
	err := r.withRetry(ctx, func() error {
		res = res[:0]
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				row      model.MeterRollup
				count    int64
				sumCents int64
			)
			if err := rows.Scan(&row.MeterID, &row.Code, &row.Location, &count, &sumCents); err != nil {
				return fmt.Errorf("scan meter rollup: %w", err)
			}
			row.Count = int(count)
			row.Sum = fromCents(sumCents)
			res = append(res, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("readings by meter: %w", err)
	}
	return res, nil
}

// ReaderRollups возвращает количество показаний по каждому контролёру.
func (r *PostgresRepository) ReaderRollups(ctx context.Context, f model.ReadingFilter) ([]model.ReaderRollup, error) {
	where, args := readingWhere(f)
	query := `SELECT u.id, u.name, u.email, COUNT(*)
		 FROM readings JOIN users u ON u.id = user_id` + where + `
		 GROUP BY u.id, u.name, u.email
		 ORDER BY COUNT(*) DESC, u.name`

	var res []model.ReaderRollup
	err := r.withRetry(ctx, func() error {
		res = res[:0]
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				row   model.ReaderRollup
				count int64
			)
			if err := rows.Scan(&row.UserID, &row.Name, &row.Email, &count); err != nil {
				return fmt.Errorf("scan reader rollup: %w", err)
			}
			row.ReadingsCount = int(count)
			res = append(res, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("reader performance: %w", err)
	}
	return res, nil
}
