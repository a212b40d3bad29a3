package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPasswordChange(t *testing.T) {
	tests := []struct {
		name    string
		in      PasswordChange
		wantErr bool
	}{
		{name: "valid", in: PasswordChange{CurrentPassword: "old-password", NewPassword: "new-password", ConfirmPassword: "new-password"}},
		{name: "short new password", in: PasswordChange{CurrentPassword: "old-password", NewPassword: "short", ConfirmPassword: "short"}, wantErr: true},
		{name: "short current password", in: PasswordChange{CurrentPassword: "old", NewPassword: "new-password", ConfirmPassword: "new-password"}, wantErr: true},
		{name: "confirmation mismatch", in: PasswordChange{CurrentPassword: "old-password", NewPassword: "new-password", ConfirmPassword: "new-passw0rd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordChange(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormalizeContact(t *testing.T) {
	got, err := NormalizeContact("  +94771234567 ")
	require.NoError(t, err)
	assert.Equal(t, "+94771234567", got)

	_, err = NormalizeContact("12345")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeContact("123456789012345678901")
	require.ErrorIs(t, err, ErrInvalidInput)
}
