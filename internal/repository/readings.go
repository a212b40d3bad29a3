package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

const readingColumns = `id, meter_id, user_id, value_cents, recorded_at, created_at`

// Порядок по времени снятия; равные моменты упорядочиваются по времени вставки.
const (
	orderAsc  = ` ORDER BY recorded_at ASC, created_at ASC, id ASC`
	orderDesc = ` ORDER BY recorded_at DESC, created_at DESC, id DESC`
)

// ReadingCheck проверяет новое показание против счётчика и его последнего показания.
type ReadingCheck func(meter *model.Meter, last *model.Reading) error

// LatestReading возвращает последнее по времени снятия показание счётчика или nil.
func (r *PostgresRepository) LatestReading(ctx context.Context, meterID uuid.UUID) (*model.Reading, error) {
	var last *model.Reading
	err := r.withRetry(ctx, func() error {
		var err error
		last, err = latestReading(ctx, r.pool, meterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// CreateReading сохраняет показание без дополнительных проверок.
func (r *PostgresRepository) CreateReading(ctx context.Context, reading *model.Reading) error {
	return insertReading(ctx, r.pool, reading)
}

// CreateReadingSerialized проверяет и сохраняет показание в одной транзакции,
// удерживая блокировку строки счётчика. Параллельные отправки по одному счётчику
// выполняются последовательно.
func (r *PostgresRepository) CreateReadingSerialized(ctx context.Context, reading *model.Reading, check ReadingCheck) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	meter, err := scanMeter(tx.QueryRow(ctx,
		`SELECT `+meterColumns+` FROM meters WHERE id = $1 FOR UPDATE`, reading.MeterID))
	if err != nil {
		return err
	}

	last, err := latestReading(ctx, tx, reading.MeterID)
	if err != nil {
		return err
	}

	if err := check(meter, last); err != nil {
		return err
	}

	if err := insertReading(ctx, tx, reading); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReadingsByMeter возвращает все показания счётчика в порядке возрастания времени снятия.
func (r *PostgresRepository) ReadingsByMeter(ctx context.Context, meterID uuid.UUID) ([]model.Reading, error) {
	var readings []model.Reading
	err := r.withRetry(ctx, func() error {
		var err error
		readings, err = r.queryReadings(ctx,
			`SELECT `+readingColumns+` FROM readings WHERE meter_id = $1`+orderAsc, meterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// ListReadings возвращает показания по фильтру, начиная с самых новых. limit <= 0 снимает ограничение.
func (r *PostgresRepository) ListReadings(ctx context.Context, f model.ReadingFilter, limit int) ([]model.Reading, error) {
	where, args := readingWhere(f)
	query := `SELECT ` + readingColumns + ` FROM readings` + where + orderDesc
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var readings []model.Reading
	err := r.withRetry(ctx, func() error {
		var err error
		readings, err = r.queryReadings(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *PostgresRepository) queryReadings(ctx context.Context, query string, args ...any) ([]model.Reading, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select readings: %w", err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return readings, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func latestReading(ctx context.Context, q querier, meterID uuid.UUID) (*model.Reading, error) {
	reading, err := scanReading(q.QueryRow(ctx,
		`SELECT `+readingColumns+` FROM readings WHERE meter_id = $1`+orderDesc+` LIMIT 1`, meterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest reading: %w", err)
	}
	return reading, nil
}

func insertReading(ctx context.Context, q querier, reading *model.Reading) error {
	cents, err := toCents(reading.Value)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx,
		`INSERT INTO readings (id, meter_id, user_id, value_cents, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		reading.ID, reading.MeterID, reading.UserID, cents, reading.RecordedAt,
	).Scan(&reading.CreatedAt)
	if err != nil {
		if isPgError(err, pgerrcode.ForeignKeyViolation) {
			return fmt.Errorf("%w: %s", ErrMeterNotFound, reading.MeterID)
		}
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func scanReading(row pgx.Row) (*model.Reading, error) {
	var (
		reading model.Reading
		cents   int64
	)
	if err := row.Scan(&reading.ID, &reading.MeterID, &reading.UserID, &cents, &reading.RecordedAt, &reading.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan reading: %w", err)
	}
	reading.Value = fromCents(cents)
	return &reading, nil
}

// readingWhere строит условие WHERE по фильтру показаний; границы периода включительно.
func readingWhere(f model.ReadingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("recorded_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("recorded_at <= $%d", len(args)))
	}
	if f.MeterID != nil {
		args = append(args, *f.MeterID)
		conds = append(conds, fmt.Sprintf("meter_id = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
