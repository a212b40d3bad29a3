// Package service реализует бизнес-логику системы учёта показаний счётчиков.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/meter-reading-system/internal/clock"
	"github.com/mmeshcher/meter-reading-system/internal/events"
	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
)

var (
	// ErrNotAssigned возвращается, если счётчик не закреплён за контролёром.
	ErrNotAssigned = errors.New("you are not assigned to this meter")
	// ErrAccessDenied возвращается, если роль или закрепление не позволяют просматривать счётчик.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSelfRoleChange возвращается при попытке администратора изменить собственную роль.
	ErrSelfRoleChange = errors.New("you cannot change your own role")
	// ErrWrongPassword возвращается, если при смене пароля указан неверный текущий пароль.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role model.Role) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, hash []byte) error
	UpdateUserContact(ctx context.Context, id uuid.UUID, contact string) error

	CreateMeter(ctx context.Context, m *model.Meter) error
	UpdateMeter(ctx context.Context, m *model.Meter) error
	DeleteMeter(ctx context.Context, id uuid.UUID) error
	GetMeter(ctx context.Context, id uuid.UUID) (*model.Meter, error)
	ListMeters(ctx context.Context, f repository.MeterFilter) ([]model.Meter, error)
	SetMeterAssignment(ctx context.Context, meterID uuid.UUID, userID *uuid.UUID) error

	LatestReading(ctx context.Context, meterID uuid.UUID) (*model.Reading, error)
	CreateReading(ctx context.Context, r *model.Reading) error
	CreateReadingSerialized(ctx context.Context, r *model.Reading, check repository.ReadingCheck) error
	ReadingsByMeter(ctx context.Context, meterID uuid.UUID) ([]model.Reading, error)
	ListReadings(ctx context.Context, f model.ReadingFilter, limit int) ([]model.Reading, error)

	CountReadings(ctx context.Context, f model.ReadingFilter) (int, error)
	ReadingsByDay(ctx context.Context, f model.ReadingFilter, loc *time.Location) ([]model.DayCount, error)
	MeterRollups(ctx context.Context, f model.ReadingFilter) ([]model.MeterRollup, error)
	ReaderRollups(ctx context.Context, f model.ReadingFilter) ([]model.ReaderRollup, error)
}

// Options задаёт необязательные параметры сервиса.
type Options struct {
	// SerializeSubmissions выполняет проверку и запись показания в одной транзакции
	// с блокировкой счётчика.
	SerializeSubmissions bool
	// PasswordCost задаёт стоимость bcrypt, 0 означает bcrypt.DefaultCost.
	PasswordCost int
}

// Service содержит бизнес-логику системы учёта показаний.
type Service struct {
	repo         Repository
	publisher    events.Publisher
	clock        clock.Clock
	logger       *zap.Logger
	serialize    bool
	passwordCost int
}

// NewService создаёт новый сервис.
func NewService(repo Repository, publisher events.Publisher, clk clock.Clock, logger *zap.Logger, opts Options) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := opts.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		repo:         repo,
		publisher:    publisher,
		clock:        clk,
		logger:       logger,
		serialize:    opts.SerializeSubmissions,
		passwordCost: cost,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("close event publisher", zap.Error(err))
	}
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Location возвращает часовой пояс сервера, в котором считаются периоды отчётов.
func (s *Service) Location() *time.Location {
	return s.clock.Now().Location()
}
