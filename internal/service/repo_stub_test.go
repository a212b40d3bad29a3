package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/meter-reading-system/internal/model"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
)

// memRepo хранит данные в памяти с той же упорядоченностью показаний, что и PostgreSQL.
type memRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	meters   map[uuid.UUID]model.Meter
	readings []model.Reading
	seq      int64

	createReadingErr error
	serializedCalls  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:  make(map[uuid.UUID]model.User),
		meters: make(map[uuid.UUID]model.Meter),
	}
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) CreateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrUserExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.User
	for _, u := range r.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *memRepo) UpdateUserRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *memRepo) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *memRepo) UpdateUserContact(ctx context.Context, id uuid.UUID, contact string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ContactNumber = &contact
	r.users[id] = u
	return nil
}

func (r *memRepo) CreateMeter(ctx context.Context, m *model.Meter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.meters {
		if existing.Code == m.Code {
			return repository.ErrMeterCodeExists
		}
	}
	r.meters[m.ID] = *m
	return nil
}

func (r *memRepo) UpdateMeter(ctx context.Context, m *model.Meter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meters[m.ID]; !ok {
		return repository.ErrMeterNotFound
	}
	for _, existing := range r.meters {
		if existing.Code == m.Code && existing.ID != m.ID {
			return repository.ErrMeterCodeExists
		}
	}
	r.meters[m.ID] = *m
	return nil
}

func (r *memRepo) DeleteMeter(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meters[id]; !ok {
		return repository.ErrMeterNotFound
	}
	for _, reading := range r.readings {
		if reading.MeterID == id {
			return repository.ErrMeterHasReadings
		}
	}
	delete(r.meters, id)
	return nil
}

func (r *memRepo) GetMeter(ctx context.Context, id uuid.UUID) (*model.Meter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meters[id]
	if !ok {
		return nil, repository.ErrMeterNotFound
	}
	return &m, nil
}

func (r *memRepo) ListMeters(ctx context.Context, f repository.MeterFilter) ([]model.Meter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Meter
	for _, m := range r.meters {
		if f.AssignedUserID != nil && !m.AssignedTo(*f.AssignedUserID) {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res, nil
}

func (r *memRepo) SetMeterAssignment(ctx context.Context, meterID uuid.UUID, userID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meters[meterID]
	if !ok {
		return repository.ErrMeterNotFound
	}
	m.AssignedUserID = userID
	r.meters[meterID] = m
	return nil
}

func (r *memRepo) LatestReading(ctx context.Context, meterID uuid.UUID) (*model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latestLocked(meterID), nil
}

func (r *memRepo) latestLocked(meterID uuid.UUID) *model.Reading {
	readings := r.byMeterLocked(meterID)
	if len(readings) == 0 {
		return nil
	}
	last := readings[len(readings)-1]
	return &last
}

func (r *memRepo) CreateReading(ctx context.Context, reading *model.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(reading)
}

func (r *memRepo) insertLocked(reading *model.Reading) error {
	if r.createReadingErr != nil {
		return r.createReadingErr
	}
	if _, ok := r.meters[reading.MeterID]; !ok {
		return repository.ErrMeterNotFound
	}
	r.seq++
	reading.CreatedAt = time.Unix(r.seq, 0)
	r.readings = append(r.readings, *reading)
	return nil
}

func (r *memRepo) CreateReadingSerialized(ctx context.Context, reading *model.Reading, check repository.ReadingCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializedCalls++
	m, ok := r.meters[reading.MeterID]
	if !ok {
		return repository.ErrMeterNotFound
	}
	if err := check(&m, r.latestLocked(reading.MeterID)); err != nil {
		return err
	}
	return r.insertLocked(reading)
}

func (r *memRepo) ReadingsByMeter(ctx context.Context, meterID uuid.UUID) ([]model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byMeterLocked(meterID), nil
}

func (r *memRepo) byMeterLocked(meterID uuid.UUID) []model.Reading {
	var res []model.Reading
	for _, reading := range r.readings {
		if reading.MeterID == meterID {
			res = append(res, reading)
		}
	}
	sortAsc(res)
	return res
}

func (r *memRepo) ListReadings(ctx context.Context, f model.ReadingFilter, limit int) ([]model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.filterLocked(f)
	sortAsc(res)
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *memRepo) CountReadings(ctx context.Context, f model.ReadingFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filterLocked(f)), nil
}

func (r *memRepo) ReadingsByDay(ctx context.Context, f model.ReadingFilter, loc *time.Location) ([]model.DayCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[time.Time]int)
	for _, reading := range r.filterLocked(f) {
		t := reading.RecordedAt.In(loc)
		counts[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)]++
	}
	var res []model.DayCount
	for day, n := range counts {
		res = append(res, model.DayCount{Day: day, Count: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day.Before(res[j].Day) })
	return res, nil
}

func (r *memRepo) MeterRollups(ctx context.Context, f model.ReadingFilter) ([]model.MeterRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byMeter := make(map[uuid.UUID]*model.MeterRollup)
	for _, reading := range r.filterLocked(f) {
		row, ok := byMeter[reading.MeterID]
		if !ok {
			m := r.meters[reading.MeterID]
			row = &model.MeterRollup{MeterID: m.ID, Code: m.Code, Location: m.Location, Sum: decimal.Zero}
			byMeter[reading.MeterID] = row
		}
		row.Count++
		row.Sum = row.Sum.Add(reading.Value)
	}
	var res []model.MeterRollup
	for _, row := range byMeter {
		res = append(res, *row)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Count > res[j].Count })
	return res, nil
}

func (r *memRepo) ReaderRollups(ctx context.Context, f model.ReadingFilter) ([]model.ReaderRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byUser := make(map[uuid.UUID]*model.ReaderRollup)
	for _, reading := range r.filterLocked(f) {
		row, ok := byUser[reading.UserID]
		if !ok {
			u := r.users[reading.UserID]
			row = &model.ReaderRollup{UserID: reading.UserID, Name: u.Name, Email: u.Email}
			byUser[reading.UserID] = row
		}
		row.ReadingsCount++
	}
	var res []model.ReaderRollup
	for _, row := range byUser {
		res = append(res, *row)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ReadingsCount > res[j].ReadingsCount })
	return res, nil
}

func (r *memRepo) filterLocked(f model.ReadingFilter) []model.Reading {
	var res []model.Reading
	for _, reading := range r.readings {
		if !f.From.IsZero() && reading.RecordedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && reading.RecordedAt.After(f.To) {
			continue
		}
		if f.MeterID != nil && reading.MeterID != *f.MeterID {
			continue
		}
		if f.UserID != nil && reading.UserID != *f.UserID {
			continue
		}
		res = append(res, reading)
	}
	return res
}

func sortAsc(readings []model.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		a, b := readings[i], readings[j]
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
