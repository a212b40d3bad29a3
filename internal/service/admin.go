package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

// Authenticate проверяет email и пароль и возвращает пользователя.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// CreateUser создаёт пользователя с временным паролем.
func (s *Service) CreateUser(ctx context.Context, in validation.UserInput) (*model.User, error) {
	in, err := validation.NormalizeUser(in)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
	}
	if in.ContactNumber != "" {
		contact := in.ContactNumber
		u.ContactNumber = &contact
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return u, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким email ещё нет.
// Возвращает признак того, что пользователь был создан.
func (s *Service) EnsureAdmin(ctx context.Context, in validation.UserInput) (*model.User, bool, error) {
	existing, err := s.repo.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	in.Role = model.RoleAdmin
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUserRole меняет роль другого пользователя.
func (s *Service) UpdateUserRole(ctx context.Context, actor model.Actor, userID uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", validation.ErrInvalidInput, role)
	}
	if actor.UserID == userID {
		return ErrSelfRoleChange
	}
	return s.repo.UpdateUserRole(ctx, userID, role)
}

// CreateMeter создаёт счётчик.
func (s *Service) CreateMeter(ctx context.Context, in validation.MeterInput) (*model.Meter, error) {
	in, err := validation.NormalizeMeter(in)
	if err != nil {
		return nil, err
	}

	m := &model.Meter{
		ID:          uuid.New(),
		Code:        in.Code,
		Location:    in.Location,
		Status:      in.Status,
		ReadingType: in.ReadingType,
	}
	if err := s.repo.CreateMeter(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("meter created", zap.String("meter_id", m.ID.String()), zap.String("code", m.Code))
	return m, nil
}

// UpdateMeter изменяет атрибуты счётчика. Закрепление не меняется.
func (s *Service) UpdateMeter(ctx context.Context, id uuid.UUID, in validation.MeterInput) (*model.Meter, error) {
	in, err := validation.NormalizeMeter(in)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.GetMeter(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Code = in.Code
	m.Location = in.Location
	m.Status = in.Status
	m.ReadingType = in.ReadingType

	if err := s.repo.UpdateMeter(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMeter удаляет счётчик без показаний.
func (s *Service) DeleteMeter(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteMeter(ctx, id); err != nil {
		return err
	}
	s.logger.Info("meter deleted", zap.String("meter_id", id.String()))
	return nil
}

// AssignMeter закрепляет счётчик за пользователем.
func (s *Service) AssignMeter(ctx context.Context, meterID, userID uuid.UUID) error {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.repo.SetMeterAssignment(ctx, meterID, &userID)
}

// UnassignMeter снимает закрепление счётчика.
func (s *Service) UnassignMeter(ctx context.Context, meterID uuid.UUID) error {
	return s.repo.SetMeterAssignment(ctx, meterID, nil)
}

// ListMeters возвращает счётчики, доступные пользователю: администратору все,
// контролёру только закреплённые за ним и включённые.
func (s *Service) ListMeters(ctx context.Context, actor model.Actor) ([]model.Meter, error) {
	if actor.IsAdmin() {
		return s.repo.ListMeters(ctx, repository.MeterFilter{})
	}
	id := actor.UserID
	return s.repo.ListMeters(ctx, repository.MeterFilter{
		AssignedUserID: &id,
		Status:         model.MeterStatusEnabled,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
