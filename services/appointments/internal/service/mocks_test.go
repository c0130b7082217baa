package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/google/uuid"
)

var errStore = errors.New("store unavailable")

type mockAppointmentRepo struct {
	mu    sync.Mutex
	appts map[string]*domain.Appointment
	order []string

	// hideExisting makes ExistsForUserSlot report false, as a concurrent
	// request would see before the other insert lands.
	hideExisting bool
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: map[string]*domain.Appointment{}}
}

func (m *mockAppointmentRepo) ExistsForUserSlot(ctx context.Context, userID, date, slot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideExisting {
		return false, nil
	}
	return m.slotTaken(userID, date, slot, false), nil
}

// slotTaken mirrors the store: the pre-check sees every origin, the unique
// index only self bookings.
func (m *mockAppointmentRepo) slotTaken(userID, date, slot string, selfOnly bool) bool {
	for _, a := range m.appts {
		if selfOnly && a.Origin != domain.OriginSelf {
			continue
		}
		if a.User.ID == userID && a.Date == date && a.Time == slot {
			return true
		}
	}
	return false
}

func (m *mockAppointmentRepo) Create(ctx context.Context, na domain.NewAppointment) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if na.Origin == domain.OriginSelf && m.slotTaken(na.UserID, na.Date, na.Time, true) {
		return nil, domain.ErrSlotTaken
	}
	now := time.Now()
	a := &domain.Appointment{
		ID:        uuid.NewString(),
		User:      domain.Party{ID: na.UserID},
		Trainer:   domain.Party{ID: na.TrainerID},
		Date:      na.Date,
		Time:      na.Time,
		Status:    na.Status,
		Notes:     na.Notes,
		Price:     na.Price,
		Scolor:    na.Scolor,
		Origin:    na.Origin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.appts[a.ID] = a
	m.order = append(m.order, a.ID)
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *mockAppointmentRepo) list(keep func(*domain.Appointment) bool) []domain.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Appointment{}
	for _, id := range m.order {
		if a, ok := m.appts[id]; ok && keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (m *mockAppointmentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	return m.list(func(a *domain.Appointment) bool { return a.User.ID == userID }), nil
}

func (m *mockAppointmentRepo) ListByTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error) {
	return m.list(func(a *domain.Appointment) bool { return a.Trainer.ID == trainerID }), nil
}

func (m *mockAppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	return m.list(func(*domain.Appointment) bool { return true }), nil
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, nil
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, id string, p domain.AppointmentPatch) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, nil
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.User.ID, p.UserID)
	set(&a.Trainer.ID, p.TrainerID)
	set(&a.Date, p.Date)
	set(&a.Time, p.Time)
	set(&a.Notes, p.Notes)
	set(&a.Scolor, p.Scolor)
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.appts[id]
	delete(m.appts, id)
	return ok, nil
}

type mockNotificationRepo struct {
	mu         sync.Mutex
	items      map[string]*domain.Notification
	order      []string
	failCreate bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{items: map[string]*domain.Notification{}}
}

func (m *mockNotificationRepo) Create(ctx context.Context, nn domain.NewNotification) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return nil, errStore
	}
	now := time.Now()
	n := &domain.Notification{
		ID: uuid.NewString(), User: nn.UserID, AppointmentID: nn.AppointmentID,
		Message: nn.Message, Type: nn.Type, CreatedAt: now, UpdatedAt: now,
	}
	m.items[n.ID] = n
	m.order = append(m.order, n.ID)
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Notification{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if n := m.items[m.order[i]]; n.User == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	n.Read = true
	cp := *n
	return &cp, nil
}

// sentTo returns the notifications addressed to userID, oldest first.
func (m *mockNotificationRepo) sentTo(userID string) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, id := range m.order {
		if n := m.items[id]; n.User == userID {
			out = append(out, *n)
		}
	}
	return out
}

type mockUserRepo struct {
	users map[string]*authz.Identity
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*authz.Identity, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// fakeTx runs fn directly. A failed fn is reported like a rolled back
// transaction.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("nats: connection closed")
	}
	m.events = append(m.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}
