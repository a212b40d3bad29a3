package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/mmeshcher/meter-reading-system/internal/model"
)

const (
	maxMeterCodeLen     = 50
	maxMeterLocationLen = 200
	minUserNameLen      = 2
	minPasswordLen      = 8
)

// MeterInput содержит данные для создания или изменения счётчика.
type MeterInput struct {
	Code        string
	Location    string
	Status      model.MeterStatus
	ReadingType model.ReadingType
}

// NormalizeMeter проверяет данные счётчика и подставляет значения по умолчанию.
func NormalizeMeter(in MeterInput) (MeterInput, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Location = strings.TrimSpace(in.Location)

	if in.Code == "" {
		return in, fmt.Errorf("%w: meter code is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Code) > maxMeterCodeLen {
		return in, fmt.Errorf("%w: meter code is longer than %d characters", ErrInvalidInput, maxMeterCodeLen)
	}
	if in.Location == "" {
		return in, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Location) > maxMeterLocationLen {
		return in, fmt.Errorf("%w: location is longer than %d characters", ErrInvalidInput, maxMeterLocationLen)
	}

	if in.Status == "" {
		in.Status = model.MeterStatusEnabled
	}
	if !in.Status.Valid() {
		return in, fmt.Errorf("%w: unknown meter status %q", ErrInvalidInput, in.Status)
	}

	if in.ReadingType == "" {
		in.ReadingType = model.ReadingTypeIncreasing
	}
	if !in.ReadingType.Valid() {
		return in, fmt.Errorf("%w: unknown reading type %q", ErrInvalidInput, in.ReadingType)
	}

	return in, nil
}

// UserInput содержит данные для создания пользователя администратором.
type UserInput struct {
	Name          string
	Email         string
	Role          model.Role
	ContactNumber string
	Password      string
}

// NormalizeUser проверяет данные нового пользователя.
func NormalizeUser(in UserInput) (UserInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)

	if utf8.RuneCountInString(in.Name) < minUserNameLen {
		return in, fmt.Errorf("%w: name must be at least %d characters", ErrInvalidInput, minUserNameLen)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return in, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if len(in.Password) < minPasswordLen {
		return in, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	return in, nil
}
