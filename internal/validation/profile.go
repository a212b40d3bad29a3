package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minContactLen = 10
	maxContactLen = 20
)

// PasswordChange содержит данные для смены собственного пароля.
type PasswordChange struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// CheckPasswordChange проверяет длину паролей и совпадение подтверждения.
// Текущий пароль сверяется с хешем отдельно.
func CheckPasswordChange(in PasswordChange) error {
	for _, p := range []string{in.CurrentPassword, in.NewPassword, in.ConfirmPassword} {
		if len(p) < minPasswordLen {
			return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
		}
	}
	if in.NewPassword != in.ConfirmPassword {
		return fmt.Errorf("%w: passwords don't match", ErrInvalidInput)
	}
	return nil
}

// NormalizeContact проверяет контактный телефон и убирает пробелы по краям.
func NormalizeContact(raw string) (string, error) {
	contact := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(contact)
	if n < minContactLen || n > maxContactLen {
		return "", fmt.Errorf("%w: contact number must be %d to %d characters", ErrInvalidInput, minContactLen, maxContactLen)
	}
	return contact, nil
}
