package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

func TestReadingWhere(t *testing.T) {
	meterID := uuid.New()
	userID := uuid.New()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name      string
		filter    model.ReadingFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "empty filter",
			filter:    model.ReadingFilter{},
			wantWhere: "",
		},
		{
			name:      "window only",
			filter:    model.ReadingFilter{From: from, To: to},
			wantWhere: " WHERE recorded_at >= $1 AND recorded_at <= $2",
			wantArgs:  []any{from, to},
		},
		{
			name:      "all filters",
			filter:    model.ReadingFilter{From: from, To: to, MeterID: &meterID, UserID: &userID},
			wantWhere: " WHERE recorded_at >= $1 AND recorded_at <= $2 AND meter_id = $3 AND user_id = $4",
			wantArgs:  []any{from, to, meterID, userID},
		},
		{
			name:      "user only",
			filter:    model.ReadingFilter{UserID: &userID},
			wantWhere: " WHERE user_id = $1",
			wantArgs:  []any{userID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := readingWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCentsConversion(t *testing.T) {
	tests := []struct {
		value string
		cents int64
	}{
		{value: "0", cents: 0},
		{value: "15.5", cents: 1550},
		{value: "150.75", cents: 15075},
		{value: "0.01", cents: 1},
		{value: "99999999.99", cents: 9999999999},
		{value: "9999999999999999.99", cents: 999999999999999999},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := decimal.RequireFromString(tt.value)
			cents, err := toCents(v)
			require.NoError(t, err)
			require.Equal(t, tt.cents, cents)
			assert.True(t, fromCents(tt.cents).Equal(v), "fromCents(%d) = %s", tt.cents, fromCents(tt.cents))
		})
	}
}

func TestCentsConversion_OutOfRange(t *testing.T) {
	for _, value := range []string{"1e20", "92233720368547758.08", "-0.01"} {
		t.Run(value, func(t *testing.T) {
			_, err := toCents(decimal.RequireFromString(value))
			require.ErrorIs(t, err, ErrValueOutOfRange)
		})
	}
}

func TestWithRetry_StopsOnNonRetryableError(t *testing.T) {
	r := &PostgresRepository{}
	calls := 0
	want := errors.New("syntax error")

	err := r.withRetry(context.Background(), func() error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_HonoursContextCancellation(t *testing.T) {
	r := &PostgresRepository{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.withRetry(ctx, func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}))
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, isRetryable(errors.New("no rows")))
}
