package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

// ChangePassword меняет пароль пользователя после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in validation.PasswordChange) error {
	if err := validation.CheckPasswordChange(in); err != nil {
		return err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// UpdateContact меняет контактный телефон пользователя.
func (s *Service) UpdateContact(ctx context.Context, userID uuid.UUID, raw string) (*model.User, error) {
	contact, err := validation.NormalizeContact(raw)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserContact(ctx, userID, contact); err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, userID)
}
