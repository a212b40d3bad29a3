// Package model содержит доменные сущности системы учёта показаний счётчиков.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleReader Role = "READER"
)

// Valid сообщает, является ли роль допустимой.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReader
}

// User представляет пользователя системы: администратора или контролёра.
type User struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Role          Role
	ContactNumber *string
	PasswordHash  []byte
	CreatedAt     time.Time
}

// Actor представляет текущего пользователя запроса, полученного из сессии.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin сообщает, является ли пользователь администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// MeterStatus описывает состояние счётчика.
type MeterStatus string

const (
	MeterStatusEnabled    MeterStatus = "ENABLED"
	MeterStatusDisabled   MeterStatus = "DISABLED"
	MeterStatusNotWorking MeterStatus = "NOT_WORKING"
)

// Valid сообщает, является ли статус допустимым.
func (s MeterStatus) Valid() bool {
	switch s {
	case MeterStatusEnabled, MeterStatusDisabled, MeterStatusNotWorking:
		return true
	}
	return false
}

// ReadingType задаёт политику проверки показаний счётчика.
type ReadingType string

const (
	// ReadingTypeIncreasing обозначает накопительный счётчик, показания не убывают.
	ReadingTypeIncreasing ReadingType = "INCREASING"
	// ReadingTypeNormal допускает, что показания могут принимать любое неотрицательное значение.
	ReadingTypeNormal ReadingType = "NORMAL"
)

// Valid сообщает, является ли тип показаний допустимым.
func (t ReadingType) Valid() bool {
	return t == ReadingTypeIncreasing || t == ReadingTypeNormal
}

// Meter описывает точку учёта.
type Meter struct {
	ID             uuid.UUID
	Code           string
	Location       string
	Status         MeterStatus
	ReadingType    ReadingType
	AssignedUserID *uuid.UUID
	CreatedAt      time.Time
}

// AssignedTo сообщает, закреплён ли счётчик за указанным пользователем.
func (m *Meter) AssignedTo(userID uuid.UUID) bool {
	return m.AssignedUserID != nil && *m.AssignedUserID == userID
}

// Reading описывает одно показание счётчика. После создания не изменяется.
type Reading struct {
	ID         uuid.UUID
	MeterID    uuid.UUID
	UserID     uuid.UUID
	Value      decimal.Decimal
	RecordedAt time.Time
	CreatedAt  time.Time
}

// ReadingFilter ограничивает выборку показаний. Нулевые поля не применяются.
type ReadingFilter struct {
	From    time.Time
	To      time.Time
	MeterID *uuid.UUID
	UserID  *uuid.UUID
}
