package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "integer", raw: "100", want: "100.00"},
		{name: "two decimals", raw: "150.75", want: "150.75"},
		{name: "zero", raw: "0", want: "0.00"},
		{name: "rounds half up", raw: "10.005", want: "10.01"},
		{name: "surrounding spaces", raw: "  15.5 ", want: "15.50"},
		{name: "largest storable", raw: "9999999999999999.99", want: "9999999999999999.99"},
		{name: "rounds up to the limit", raw: "9999999999999999.999", wantErr: true},
		{name: "exponent beyond storage", raw: "1e20", wantErr: true},
		{name: "int64 cents overflow", raw: "92233720368547758.08", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "letters", raw: "12a", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseValue(%q) error = %v, want ErrInvalidInput", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%q) unexpected error: %v", tt.raw, err)
			}
			if got.StringFixed(ValuePrecision) != tt.want {
				t.Fatalf("ParseValue(%q) = %s, want %s", tt.raw, got.StringFixed(ValuePrecision), tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc3339 keeps its own offset",
			raw:  "2025-03-01T10:00:00Z",
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "datetime-local uses server location",
			raw:  "2025-03-01T10:00",
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, loc),
		},
		{
			name: "space separated with seconds",
			raw:  "2025-03-01 10:00:30",
			want: time.Date(2025, 3, 1, 10, 0, 30, 0, loc),
		},
		{
			name: "date only is midnight in server location",
			raw:  "2025-03-20",
			want: time.Date(2025, 3, 20, 0, 0, 0, 0, loc),
		},
		{name: "garbage", raw: "yesterday", wantErr: true},
		{name: "empty", raw: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw, loc)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestCheckReading(t *testing.T) {
	last := &model.Reading{Value: decimal.RequireFromString("100.00")}

	tests := []struct {
		name        string
		readingType model.ReadingType
		last        *model.Reading
		candidate   string
		wantErr     error
	}{
		{name: "increasing below last", readingType: model.ReadingTypeIncreasing, last: last, candidate: "95.00", wantErr: ErrMonotonicityViolation},
		{name: "increasing equal to last", readingType: model.ReadingTypeIncreasing, last: last, candidate: "100.00"},
		{name: "increasing above last", readingType: model.ReadingTypeIncreasing, last: last, candidate: "150.75"},
		{name: "increasing first reading", readingType: model.ReadingTypeIncreasing, last: nil, candidate: "0"},
		{name: "normal below last", readingType: model.ReadingTypeNormal, last: last, candidate: "1.00"},
		{name: "normal negative", readingType: model.ReadingTypeNormal, last: last, candidate: "-1.00", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReading(tt.readingType, tt.last, decimal.RequireFromString(tt.candidate))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckReading unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckReading error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckReading_UnknownType(t *testing.T) {
	err := CheckReading(model.ReadingType("AUTOMATIC"), nil, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMonotonicityViolation))
}

func TestNormalizeMeter(t *testing.T) {
	got, err := NormalizeMeter(MeterInput{Code: " M-1 ", Location: "Basement"})
	require.NoError(t, err)
	assert.Equal(t, "M-1", got.Code)
	assert.Equal(t, model.MeterStatusEnabled, got.Status)
	assert.Equal(t, model.ReadingTypeIncreasing, got.ReadingType)

	_, err = NormalizeMeter(MeterInput{Code: "", Location: "Basement"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeMeter(MeterInput{Code: "M-2", Location: "Roof", Status: "BROKEN"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalizeUser(t *testing.T) {
	got, err := NormalizeUser(UserInput{
		Name:     "Reader One",
		Email:    " Reader@Example.com ",
		Role:     model.RoleReader,
		Password: "temporary1",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got.Email)

	_, err = NormalizeUser(UserInput{Name: "R", Email: "r@example.com", Role: model.RoleReader, Password: "temporary1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeUser(UserInput{Name: "Reader", Email: "not-an-email", Role: model.RoleReader, Password: "temporary1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeUser(UserInput{Name: "Reader", Email: "r@example.com", Role: model.RoleReader, Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
