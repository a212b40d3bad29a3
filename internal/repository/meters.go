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

const meterColumns = `id, code, location, status, reading_type, assigned_user_id, created_at`

// MeterFilter ограничивает список счётчиков. Нулевые поля не применяются.
type MeterFilter struct {
	AssignedUserID *uuid.UUID
	Status         model.MeterStatus
}

// CreateMeter сохраняет новый счётчик.
func (r *PostgresRepository) CreateMeter(ctx context.Context, m *model.Meter) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO meters (id, code, location, status, reading_type, assigned_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		m.ID, m.Code, m.Location, string(m.Status), string(m.ReadingType), m.AssignedUserID,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isPgError(err, pgerrcode.UniqueViolation) {
			return fmt.Errorf("%w: %s", ErrMeterCodeExists, m.Code)
		}
		return fmt.Errorf("create meter: %w", err)
	}
	return nil
}

// UpdateMeter изменяет код, расположение, статус и тип показаний счётчика.
func (r *PostgresRepository) UpdateMeter(ctx context.Context, m *model.Meter) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE meters SET code = $2, location = $3, status = $4, reading_type = $5 WHERE id = $1`,
		m.ID, m.Code, m.Location, string(m.Status), string(m.ReadingType),
	)
	if err != nil {
		if isPgError(err, pgerrcode.UniqueViolation) {
			return fmt.Errorf("%w: %s", ErrMeterCodeExists, m.Code)
		}
		return fmt.Errorf("update meter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeterNotFound
	}
	return nil
}

// DeleteMeter удаляет счётчик, если у него нет ни одного показания.
func (r *PostgresRepository) DeleteMeter(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокировка строки счётчика не даёт добавить показание между подсчётом и удалением.
	var dummy int
	err = tx.QueryRow(ctx, `SELECT 1 FROM meters WHERE id = $1 FOR UPDATE`, id).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMeterNotFound
		}
		return fmt.Errorf("lock meter for update: %w", err)
	}

	var readings int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM readings WHERE meter_id = $1`, id).Scan(&readings); err != nil {
		return fmt.Errorf("count readings: %w", err)
	}
	if readings > 0 {
		return ErrMeterHasReadings
	}

	if _, err := tx.Exec(ctx, `DELETE FROM meters WHERE id = $1`, id); err != nil {
		if isPgError(err, pgerrcode.ForeignKeyViolation) {
			return ErrMeterHasReadings
		}
		return fmt.Errorf("delete meter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetMeter возвращает счётчик по идентификатору.
func (r *PostgresRepository) GetMeter(ctx context.Context, id uuid.UUID) (*model.Meter, error) {
	var m *model.Meter
	err := r.withRetry(ctx, func() error {
		var err error
		m, err = scanMeter(r.pool.QueryRow(ctx, `SELECT `+meterColumns+` FROM meters WHERE id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMeters возвращает счётчики, упорядоченные по коду.
func (r *PostgresRepository) ListMeters(ctx context.Context, f MeterFilter) ([]model.Meter, error) {
	var (
		conds []string
		args  []any
	)
	if f.AssignedUserID != nil {
		args = append(args, *f.AssignedUserID)
		conds = append(conds, fmt.Sprintf("assigned_user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + meterColumns + ` FROM meters`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select meters: %w", err)
	}
	defer rows.Close()

	var meters []model.Meter
	for rows.Next() {
		m, err := scanMeter(rows)
		if err != nil {
			return nil, err
		}
		meters = append(meters, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return meters, nil
}

// SetMeterAssignment закрепляет счётчик за пользователем; nil снимает закрепление.
func (r *PostgresRepository) SetMeterAssignment(ctx context.Context, meterID uuid.UUID, userID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE meters SET assigned_user_id = $2 WHERE id = $1`, meterID, userID)
	if err != nil {
		if isPgError(err, pgerrcode.ForeignKeyViolation) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update meter assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeterNotFound
	}
	return nil
}

func scanMeter(row pgx.Row) (*model.Meter, error) {
	var (
		m           model.Meter
		status      string
		readingType string
	)
	err := row.Scan(&m.ID, &m.Code, &m.Location, &status, &readingType, &m.AssignedUserID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeterNotFound
		}
		return nil, fmt.Errorf("scan meter: %w", err)
	}
	m.Status = model.MeterStatus(status)
	m.ReadingType = model.ReadingType(readingType)
	return &m, nil
}
