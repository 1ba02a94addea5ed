package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/setting"
)

// EmployeeStore is an in-process employee.EmployeeRepository.
type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

func NewEmployeeStore(employees ...employee.Employee) *EmployeeStore {
	s := &EmployeeStore{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		s.Put(e)
	}
	return s
}

func (s *EmployeeStore) Put(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

func (s *EmployeeStore) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// OfficeLocationStore is an in-process location.OfficeLocationRepository.
type OfficeLocationStore struct {
	mu        sync.RWMutex
	locations map[string]location.OfficeLocation
}

func NewOfficeLocationStore(locations ...location.OfficeLocation) *OfficeLocationStore {
	s := &OfficeLocationStore{locations: make(map[string]location.OfficeLocation)}
	for _, l := range locations {
		s.Put(l)
	}
	return s
}

func (s *OfficeLocationStore) Put(l location.OfficeLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

func (s *OfficeLocationStore) GetByID(ctx context.Context, id string) (location.OfficeLocation, error) {
	if err := ctx.Err(); err != nil {
		return location.OfficeLocation{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.locations[id]
	if !ok {
		return location.OfficeLocation{}, location.ErrOfficeLocationNotFound
	}
	return l, nil
}

// WorkScheduleStore is an in-process schedule.WorkScheduleRepository keyed
// by ISO day of week.
type WorkScheduleStore struct {
	mu   sync.RWMutex
	days map[int]schedule.WorkSchedule
}

func NewWorkScheduleStore(rows ...schedule.WorkSchedule) *WorkScheduleStore {
	s := &WorkScheduleStore{days: make(map[int]schedule.WorkSchedule)}
	for _, r := range rows {
		s.Put(r)
	}
	return s
}

func (s *WorkScheduleStore) Put(row schedule.WorkSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[row.DayOfWeek] = row
}

func (s *WorkScheduleStore) GetByDayOfWeek(ctx context.Context, dayOfWeek int) (schedule.WorkSchedule, error) {
	if err := ctx.Err(); err != nil {
		return schedule.WorkSchedule{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.days[dayOfWeek]
	if !ok {
		return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
	}
	return row, nil
}

// SettingStore is an in-process setting.SettingRepository.
type SettingStore struct {
	mu         sync.RWMutex
	thresholds setting.Thresholds
}

func NewSettingStore(t setting.Thresholds) *SettingStore {
	return &SettingStore{thresholds: t}
}

func (s *SettingStore) Set(t setting.Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
}

func (s *SettingStore) GetThresholds(ctx context.Context) (setting.Thresholds, error) {
	if err := ctx.Err(); err != nil {
		return setting.Thresholds{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.thresholds.Normalize(), nil
}

// FaceDescriptorStore is an in-process face.DescriptorRepository.
type FaceDescriptorStore struct {
	mu    sync.RWMutex
	faces map[string]face.RegisteredFace
}

func NewFaceDescriptorStore() *FaceDescriptorStore {
	return &FaceDescriptorStore{faces: make(map[string]face.RegisteredFace)}
}

func (s *FaceDescriptorStore) Put(employeeID string, descriptor face.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faces[employeeID] = face.RegisteredFace{
		EmployeeID: employeeID,
		Descriptor: slices.Clone(descriptor),
	}
}

func (s *FaceDescriptorStore) GetByEmployeeID(ctx context.Context, employeeID string) (face.RegisteredFace, error) {
	if err := ctx.Err(); err != nil {
		return face.RegisteredFace{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.faces[employeeID]
	if !ok {
		return face.RegisteredFace{}, face.ErrDescriptorNotFound
	}
	f.Descriptor = slices.Clone(f.Descriptor)
	return f, nil
}
