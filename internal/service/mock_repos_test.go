package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/repository"
	pkgerrors "github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/errors"
)

// ── Mock PlaceRepository ──

type mockPlaceRepo struct {
	places map[string]*model.Place
}

func newMockPlaceRepo() *mockPlaceRepo {
	return &mockPlaceRepo{places: make(map[string]*model.Place)}
}

func (m *mockPlaceRepo) GetByID(_ context.Context, id string) (*model.Place, error) {
	if p, ok := m.places[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlaceRepo) List(_ context.Context, includeInactive bool) ([]model.Place, error) {
	var result []model.Place
	for _, p := range m.places {
		if !includeInactive && !p.IsActive {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockPlaceRepo) ListByIDs(_ context.Context, ids []string) ([]model.Place, error) {
	var result []model.Place
	for _, id := range ids {
		if p, ok := m.places[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	activities   map[string]*model.Activity
	appointments *mockAppointmentRepo
	createErr    error
	updateErr    error
	lockedIDs    []string
}

func newMockActivityRepo(appointments *mockAppointmentRepo) *mockActivityRepo {
	return &mockActivityRepo{activities: make(map[string]*model.Activity), appointments: appointments}
}

func (m *mockActivityRepo) Create(_ context.Context, activity *model.Activity) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *activity
	cp.Appointments = nil
	m.activities[activity.ActivityID] = &cp
	return nil
}

func (m *mockActivityRepo) GetByID(_ context.Context, id string) (*model.Activity, error) {
	if a, ok := m.activities[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockActivityRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Activity, error) {
	m.lockedIDs = append(m.lockedIDs, id)
	return m.GetByID(ctx, id)
}

func (m *mockActivityRepo) GetByIDWithAppointments(ctx context.Context, id string) (*model.Activity, error) {
	a, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Appointments, _ = m.appointments.ListByActivity(ctx, id)
	return a, nil
}

func (m *mockActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]model.Activity, error) {
	var result []model.Activity
	for _, a := range m.activities {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && a.OwnerID != filter.OwnerID {
			continue
		}
		if filter.From != nil || filter.To != nil {
			appts, _ := m.appointments.List(ctx, repository.AppointmentFilter{
				From: filter.From, To: filter.To, ActivityID: a.ActivityID,
			})
			if len(appts) == 0 {
				continue
			}
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockActivityRepo) ListExpired(_ context.Context, asOf time.Time) ([]model.Activity, error) {
	var result []model.Activity
	for _, a := range m.activities {
		if a.Status == model.ActivityScheduled && a.LastDate().Before(asOf) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockActivityRepo) Update(_ context.Context, activity *model.Activity) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.activities[activity.ActivityID]
	if !ok || stored.Version != activity.Version {
		return pkgerrors.ErrOptimisticLock
	}
	activity.Version++
	cp := *activity
	cp.Appointments = nil
	m.activities[activity.ActivityID] = &cp
	return nil
}

func (m *mockActivityRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.activities, id)
	return nil
}

// ── Mock AppointmentRepository ──

type mockAppointmentRepo struct {
	appointments map[string]*model.Appointment
	batchErr     error
	batchCalls   int
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[string]*model.Appointment)}
}

func (m *mockAppointmentRepo) BatchCreate(_ context.Context, appointments []model.Appointment) error {
	m.batchCalls++
	if m.batchErr != nil {
		return m.batchErr
	}
	for i := range appointments {
		cp := appointments[i]
		m.appointments[cp.AppointmentID] = &cp
	}
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAppointmentRepo) ListScheduledByPlaceAndDate(_ context.Context, placeID string, date time.Time) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range m.appointments {
		if a.PlaceID == placeID && a.Date.Equal(date) && a.Status == model.AppointmentScheduled {
			result = append(result, *a)
		}
	}
	sortAppointments(result)
	return result, nil
}

func (m *mockAppointmentRepo) ListByActivity(_ context.Context, activityID string) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range m.appointments {
		if a.ActivityID == activityID {
			result = append(result, *a)
		}
	}
	sortAppointments(result)
	return result, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, filter repository.AppointmentFilter) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range m.appointments {
		if filter.From != nil && a.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.Date.After(*filter.To) {
			continue
		}
		if filter.PlaceID != "" && a.PlaceID != filter.PlaceID {
			continue
		}
		if filter.ActivityID != "" && a.ActivityID != filter.ActivityID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, *a)
	}
	sortAppointments(result)
	return result, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	stored, ok := m.appointments[appointment.AppointmentID]
	if !ok || stored.Version != appointment.Version {
		return pkgerrors.ErrOptimisticLock
	}
	appointment.Version++
	cp := *appointment
	m.appointments[appointment.AppointmentID] = &cp
	return nil
}

func (m *mockAppointmentRepo) CancelScheduledByActivity(_ context.Context, activityID, reason, cancelledBy string, at time.Time) (int64, error) {
	var n int64
	for _, a := range m.appointments {
		if a.ActivityID != activityID || a.Status != model.AppointmentScheduled {
			continue
		}
		r := reason
		t := at
		by := cancelledBy
		a.Status = model.AppointmentCancelled
		a.CancelReason = &r
		a.CancelledAt = &t
		a.UpdatedBy = &by
		a.Version++
		n++
	}
	return n, nil
}

func (m *mockAppointmentRepo) DeleteByActivity(_ context.Context, activityID string, _ string) error {
	for id, a := range m.appointments {
		if a.ActivityID == activityID {
			delete(m.appointments, id)
		}
	}
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.appointments, id)
	return nil
}

func sortAppointments(list []model.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		if list[i].StartTime != list[j].StartTime {
			return list[i].StartTime < list[j].StartTime
		}
		return list[i].AppointmentID < list[j].AppointmentID
	})
}

// ── Mock LockRepository ──

type mockLockRepo struct {
	keys []string
	// onLock 在取得锁后调用，用于模拟锁等待期间提交的并发事务
	onLock func()
}

func (m *mockLockRepo) LockPlaceDate(_ context.Context, placeID string, date time.Time) error {
	m.keys = append(m.keys, repository.PlaceDateLockKey(placeID, date))
	if m.onLock != nil {
		hook := m.onLock
		m.onLock = nil
		hook()
	}
	return nil
}

// ── Mock EventPublisher ──

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return p.err
}

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == routingKey {
			n++
		}
	}
	return n
}

// ── 测试环境 ──

type testEnv struct {
	repo         *repository.Repository
	places       *mockPlaceRepo
	activities   *mockActivityRepo
	appointments *mockAppointmentRepo
	locks        *mockLockRepo
	events       *recordingPublisher
	cfg          config.SchedulingConfig
}

const (
	testPlaceID   = "place-p"
	testOwnerID   = "owner-001"
	testOtherID   = "other-002"
	inactivePlace = "place-closed"
)

func newTestEnv() *testEnv {
	appointments := newMockAppointmentRepo()
	env := &testEnv{
		places:       newMockPlaceRepo(),
		activities:   newMockActivityRepo(appointments),
		appointments: appointments,
		locks:        &mockLockRepo{},
		events:       &recordingPublisher{},
		cfg: config.SchedulingConfig{
			DayStart:       "08:00",
			DayEnd:         "20:00",
			MaxSuggestions: 3,
			MaxOccurrences: 1000,
			LockRetries:    2,
			Timezone:       "UTC",
		},
	}
	env.repo = &repository.Repository{
		Place:       env.places,
		Activity:    env.activities,
		Appointment: env.appointments,
		Lock:        env.locks,
	}
	env.places.places[testPlaceID] = &model.Place{PlaceID: testPlaceID, Name: "Sala P", Capacity: 30, IsActive: true}
	env.places.places[inactivePlace] = &model.Place{PlaceID: inactivePlace, Name: "Sala Cerrada", IsActive: false}
	return env
}

func mustDate(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedActivity 直接写入一个活动和若干预约
func (e *testEnv) seedActivity(id, ownerID string, status model.ActivityStatus) *model.Activity {
	start := mustDate("2025-07-01")
	end := mustDate("2025-07-22")
	a := &model.Activity{
		ActivityID: id,
		Name:       "Taller " + id,
		Recurrence: model.RecurrenceWeekly,
		StartDate:  start,
		EndDate:    &end,
		OwnerID:    ownerID,
		Status:     status,
	}
	a.Version = 1
	e.activities.activities[id] = a
	return a
}

func (e *testEnv) seedAppointment(id, activityID, creatorID, date, start, end string, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		AppointmentID: id,
		ActivityID:    activityID,
		PlaceID:       testPlaceID,
		Date:          mustDate(date),
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		CreatorID:     creatorID,
	}
	a.Version = 1
	if status == model.AppointmentCancelled {
		reason := "motivo previo"
		a.CancelReason = &reason
	}
	e.appointments.appointments[id] = a
	return a
}
