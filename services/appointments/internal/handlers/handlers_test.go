package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/auth"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/google/uuid"
)

type stubLoader map[string]authz.Identity

func (s stubLoader) LoadIdentity(ctx context.Context, userID string) (*authz.Identity, error) {
	if id, ok := s[userID]; ok {
		return &id, nil
	}
	return nil, nil
}

// stubAppointments records the requester of each call and answers with fixed
// values.
type stubAppointments struct {
	requester authz.Identity
	lastID    string
	lastBook  domain.BookRequest
	err       error
}

func (s *stubAppointments) Book(ctx context.Context, requester authz.Identity, req *domain.BookRequest) (*domain.Appointment, error) {
	s.requester, s.lastBook = requester, *req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Appointment{ID: uuid.NewString(), User: domain.Party{ID: requester.ID}, Status: domain.StatusPending}, nil
}

func (s *stubAppointments) ListForUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	s.lastID = userID
	return []domain.Appointment{}, nil
}

func (s *stubAppointments) ListForTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error) {
	s.lastID = trainerID
	return []domain.Appointment{}, nil
}

func (s *stubAppointments) UpdateStatus(ctx context.Context, requester authz.Identity, id, status string) (*domain.Appointment, error) {
	s.requester, s.lastID = requester, id
	return &domain.Appointment{ID: id, Status: domain.Status(status)}, s.err
}

func (s *stubAppointments) Cancel(ctx context.Context, requester authz.Identity, id string) (*domain.Appointment, error) {
	s.requester, s.lastID = requester, id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Appointment{ID: id, Status: domain.StatusCancelled}, nil
}

func (s *stubAppointments) AdminListAll(ctx context.Context) ([]domain.Appointment, error) {
	return []domain.Appointment{}, nil
}

func (s *stubAppointments) AdminCreate(ctx context.Context, req *domain.AdminCreateRequest) (*domain.Appointment, error) {
	return &domain.Appointment{ID: uuid.NewString(), Status: domain.StatusConfirmed}, nil
}

func (s *stubAppointments) AdminUpdate(ctx context.Context, id string, req *domain.AdminUpdateRequest) (*domain.Appointment, error) {
	s.lastID = id
	return &domain.Appointment{ID: id}, nil
}

func (s *stubAppointments) AdminDelete(ctx context.Context, id string) error {
	s.lastID = id
	return s.err
}

type stubAvailability struct {
	trainerID, date string
}

func (s *stubAvailability) Set(ctx context.Context, requester authz.Identity, req *domain.SetAvailabilityRequest) (*domain.Availability, error) {
	return &domain.Availability{Trainer: requester.ID, Date: req.Date, Slots: req.Slots}, nil
}

func (s *stubAvailability) Get(ctx context.Context, trainerID, date string) ([]domain.Availability, error) {
	s.trainerID, s.date = trainerID, date
	return []domain.Availability{}, nil
}

type stubNotifications struct{}

func (stubNotifications) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (stubNotifications) MarkRead(ctx context.Context, requester authz.Identity, id string) (*domain.Notification, error) {
	return nil, apperr.Forbidden("Not authorized")
}

type testEnv struct {
	handler http.Handler
	appts   *stubAppointments
	avail   *stubAvailability
	idemHit int

	userTok, adminTok string
	user              authz.Identity
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens := auth.NewTokenIssuer("handler-secret", time.Hour)
	user := authz.Identity{ID: uuid.NewString(), Name: "alice", Role: authz.RoleUser}
	admin := authz.Identity{ID: uuid.NewString(), Name: "root", Role: authz.RoleAdmin}
	gate := authz.NewGate(tokens, stubLoader{user.ID: user, admin.ID: admin})

	env := &testEnv{appts: &stubAppointments{}, avail: &stubAvailability{}, user: user}
	env.userTok, _ = tokens.Issue(user.ID, user.Role)
	env.adminTok, _ = tokens.Issue(admin.ID, admin.Role)

	idem := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env.idemHit++
			next.ServeHTTP(w, r)
		})
	}
	env.handler = New(env.appts, env.avail, stubNotifications{}).Routes(gate, idem)
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Access(t *testing.T) {
	env := newEnv(t)
	id := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"list without token", http.MethodGet, "/appointments", "", http.StatusUnauthorized},
		{"list with bad token", http.MethodGet, "/appointments", "garbage", http.StatusUnauthorized},
		{"list mine", http.MethodGet, "/appointments", env.userTok, http.StatusOK},
		{"list as trainer", http.MethodGet, "/appointments/trainer", env.userTok, http.StatusOK},
		{"cancel", http.MethodPut, "/appointments/" + id + "/cancel", env.userTok, http.StatusOK},
		{"all as user", http.MethodGet, "/appointments/all", env.userTok, http.StatusForbidden},
		{"all as admin", http.MethodGet, "/appointments/all", env.adminTok, http.StatusOK},
		{"delete as user", http.MethodDelete, "/appointments/" + id, env.userTok, http.StatusForbidden},
		{"delete as admin", http.MethodDelete, "/appointments/" + id, env.adminTok, http.StatusOK},
		{"admin update as user", http.MethodPut, "/appointments/admin/" + id, env.userTok, http.StatusForbidden},
		{"notifications", http.MethodGet, "/notifications", env.userTok, http.StatusOK},
		{"notifications without token", http.MethodGet, "/notifications", "", http.StatusUnauthorized},
		{"availability without token", http.MethodGet, "/availability/" + id, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBook_BothPathsUseIdempotency(t *testing.T) {
	env := newEnv(t)
	body := map[string]string{"trainer": uuid.NewString(), "date": "2024-06-01", "time": "10:00"}

	for _, path := range []string{"/appointments", "/appointments/book"} {
		rec := env.do(http.MethodPost, path, env.userTok, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
		}
		if env.appts.requester.ID != env.user.ID {
			t.Errorf("%s: expected requester %s, got %s", path, env.user.ID, env.appts.requester.ID)
		}
		if env.appts.lastBook.Time != "10:00" {
			t.Errorf("%s: request body not passed through: %+v", path, env.appts.lastBook)
		}
	}
	if env.idemHit != 2 {
		t.Errorf("expected idempotency middleware on both paths, got %d hits", env.idemHit)
	}

	env.do(http.MethodGet, "/appointments", env.userTok, nil)
	if env.idemHit != 2 {
		t.Error("idempotency middleware must not wrap reads")
	}
}

func TestBook_ErrorMapping(t *testing.T) {
	env := newEnv(t)
	env.appts.err = apperr.Conflict("You have already booked this slot")

	rec := env.do(http.MethodPost, "/appointments", env.userTok, map[string]string{"trainer": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body apperr.ErrorResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "You have already booked this slot" || body.Code != apperr.CodeConflict {
		t.Errorf("unexpected body %+v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+env.userTok)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestUpdateStatus_PassesPathID(t *testing.T) {
	env := newEnv(t)
	id := uuid.NewString()

	rec := env.do(http.MethodPut, "/appointments/"+id+"/status", env.userTok, map[string]string{"status": "confirmed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.appts.lastID != id {
		t.Errorf("expected id %s, got %s", id, env.appts.lastID)
	}
}

func TestAvailability(t *testing.T) {
	env := newEnv(t)
	trainerID := uuid.NewString()

	rec := env.do(http.MethodGet, "/availability/"+trainerID+"?date=2024-06-01", env.userTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.avail.trainerID != trainerID || env.avail.date != "2024-06-01" {
		t.Errorf("unexpected lookup %q %q", env.avail.trainerID, env.avail.date)
	}

	rec = env.do(http.MethodPost, "/availability", env.userTok, map[string]interface{}{
		"date": "2024-06-01", "slots": []map[string]interface{}{{"time": "09:00", "isBooked": false}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var a domain.Availability
	json.NewDecoder(rec.Body).Decode(&a)
	if a.Trainer != env.user.ID || len(a.Slots) != 1 {
		t.Errorf("unexpected availability %+v", a)
	}
}

func TestMarkRead_Forbidden(t *testing.T) {
	env := newEnv(t)
	rec := env.do(http.MethodPut, "/notifications/"+uuid.NewString(), env.userTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
