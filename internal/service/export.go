package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmeshcher/meter-reading-system/internal/export"
	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
)

// ExportReadings собирает строки выгрузки показаний по фильтру, начиная с новых.
func (s *Service) ExportReadings(ctx context.Context, f model.ReadingFilter) ([]export.ReadingRow, error) {
	readings, err := s.repo.ListReadings(ctx, f, 0)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	meters, err := s.repo.ListMeters(ctx, repository.MeterFilter{})
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	metersByID := make(map[uuid.UUID]model.Meter, len(meters))
	for _, m := range meters {
		metersByID[m.ID] = m
	}
	usersByID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	rows := make([]export.ReadingRow, 0, len(readings))
	for _, r := range readings {
		m := metersByID[r.MeterID]
		u := usersByID[r.UserID]
		rows = append(rows, export.ReadingRow{
			Reading:     r,
			MeterCode:   m.Code,
			Location:    m.Location,
			ReaderName:  u.Name,
			ReaderEmail: u.Email,
		})
	}

	return rows, nil
}

// UserNames возвращает имена пользователей по идентификаторам.
func (s *Service) UserNames(ctx context.Context) (map[uuid.UUID]string, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
