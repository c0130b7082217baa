package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/pkg/config"
	"github.com/diagnosis/coachbook/pkg/database"
	"github.com/diagnosis/coachbook/pkg/events"
	"github.com/diagnosis/coachbook/pkg/logger"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/diagnosis/coachbook/services/appointments/internal/repository"
	"github.com/google/uuid"
)

type AppointmentService interface {
	Book(ctx context.Context, requester authz.Identity, req *domain.BookRequest) (*domain.Appointment, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, requester authz.Identity, id, status string) (*domain.Appointment, error)
	Cancel(ctx context.Context, requester authz.Identity, id string) (*domain.Appointment, error)

	AdminListAll(ctx context.Context) ([]domain.Appointment, error)
	AdminCreate(ctx context.Context, req *domain.AdminCreateRequest) (*domain.Appointment, error)
	AdminUpdate(ctx context.Context, id string, req *domain.AdminUpdateRequest) (*domain.Appointment, error)
	AdminDelete(ctx context.Context, id string) error
}

type appointmentService struct {
	appointmentRepo  repository.AppointmentRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	tx               database.TxRunner
	eventBus         events.Publisher
	defaults         config.BookingConfig
}

func NewAppointmentService(
	appointmentRepo repository.AppointmentRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	tx database.TxRunner,
	eventBus events.Publisher,
	defaults config.BookingConfig,
) AppointmentService {
	return &appointmentService{
		appointmentRepo:  appointmentRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		tx:               tx,
		eventBus:         eventBus,
		defaults:         defaults,
	}
}

func (s *appointmentService) Book(ctx context.Context, requester authz.Identity, req *domain.BookRequest) (*domain.Appointment, error) {
	req.Normalize()
	if req.Trainer == "" || req.Date == "" || req.Time == "" {
		return nil, apperr.Validation("Please fill in all required fields")
	}
	if !validID(req.Trainer) {
		return nil, apperr.Validation("Invalid trainer id")
	}

	exists, err := s.appointmentRepo.ExistsForUserSlot(ctx, requester.ID, req.Date, req.Time)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, errSlotTaken
	}

	scolor := req.Scolor
	if scolor == "" {
		scolor = s.defaults.DefaultColor
	}

	var (
		appt   *domain.Appointment
		notice *domain.Notification
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.appointmentRepo.Create(ctx, domain.NewAppointment{
			UserID:    requester.ID,
			TrainerID: req.Trainer,
			Date:      req.Date,
			Time:      req.Time,
			Notes:     req.Notes,
			Price:     s.defaults.DefaultPrice,
			Scolor:    scolor,
			Status:    domain.StatusPending,
			Origin:    domain.OriginSelf,
		})
		if err != nil {
			return err
		}
		notice, err = s.notificationRepo.Create(ctx, domain.NewNotification{
			UserID:        appt.Trainer.ID,
			AppointmentID: appt.ID,
			Message:       fmt.Sprintf("New appointment booked for %s @ %s", appt.Date, appt.Time),
			Type:          domain.NotifyBooked,
		})
		return err
	})
	if errors.Is(err, domain.ErrSlotTaken) {
		return nil, errSlotTaken
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.InfoContext(ctx, "Appointment booked", "appointment_id", appt.ID, "trainer_id", appt.Trainer.ID)

	s.publish(ctx, events.AppointmentBooked, events.AppointmentBookedEvent{
		AppointmentID: appt.ID,
		UserID:        appt.User.ID,
		TrainerID:     appt.Trainer.ID,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        string(appt.Status),
		CreatedAt:     appt.CreatedAt,
	})
	s.announce(ctx, notice)

	return appt, nil
}

var errSlotTaken = apperr.Conflict("You have already booked this slot")

func (s *appointmentService) ListForUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	appts, err := s.appointmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

func (s *appointmentService) ListForTrainer(ctx context.Context, trainerID string) ([]domain.Appointment, error) {
	appts, err := s.appointmentRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

// UpdateStatus lets the appointment's trainer or an admin move it to any
// status. The booker is notified in the same transaction.
func (s *appointmentService) UpdateStatus(ctx context.Context, requester authz.Identity, id, status string) (*domain.Appointment, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsTrainer(requester.ID) && !requester.IsAdmin() {
		return nil, apperr.Forbidden("Not authorized")
	}
	st, ok := domain.ParseStatus(status)
	if !ok {
		return nil, apperr.Validation("Invalid status")
	}

	var (
		appt   *domain.Appointment
		notice *domain.Notification
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if appt, err = s.appointmentRepo.UpdateStatus(ctx, id, st); err != nil || appt == nil {
			return err
		}
		notice, err = s.notificationRepo.Create(ctx, domain.NewNotification{
			UserID:        appt.User.ID,
			AppointmentID: appt.ID,
			Message:       fmt.Sprintf("Your appointment on %s was updated: %s", appt.Date, st),
			Type:          domain.NotificationTypeFor(st),
		})
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}

	s.publish(ctx, events.AppointmentStatusChanged, events.AppointmentStatusChangedEvent{
		AppointmentID: appt.ID,
		UserID:        appt.User.ID,
		TrainerID:     appt.Trainer.ID,
		OldStatus:     string(existing.Status),
		Status:        string(appt.Status),
		ChangedBy:     requester.ID,
		ChangedAt:     appt.UpdatedAt,
	})
	s.announce(ctx, notice)

	return appt, nil
}

// Cancel is open to the booker only and cancels regardless of the current
// status. The trainer is notified.
func (s *appointmentService) Cancel(ctx context.Context, requester authz.Identity, id string) (*domain.Appointment, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsOwner(requester.ID) {
		return nil, apperr.Forbidden("Not authorized")
	}

	var (
		appt   *domain.Appointment
		notice *domain.Notification
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if appt, err = s.appointmentRepo.UpdateStatus(ctx, id, domain.StatusCancelled); err != nil || appt == nil {
			return err
		}
		notice, err = s.notificationRepo.Create(ctx, domain.NewNotification{
			UserID:        appt.Trainer.ID,
			AppointmentID: appt.ID,
			Message:       fmt.Sprintf("Appointment on %s @ %s was cancelled", appt.Date, appt.Time),
			Type:          domain.NotifyCancelled,
		})
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}

	s.publish(ctx, events.AppointmentCancelled, events.AppointmentCancelledEvent{
		AppointmentID: appt.ID,
		UserID:        appt.User.ID,
		TrainerID:     appt.Trainer.ID,
		Date:          appt.Date,
		Time:          appt.Time,
		CancelledAt:   appt.UpdatedAt,
	})
	s.announce(ctx, notice)

	return appt, nil
}

func (s *appointmentService) AdminListAll(ctx context.Context) ([]domain.Appointment, error) {
	appts, err := s.appointmentRepo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

// AdminCreate skips the one-per-slot check and defaults to confirmed.
func (s *appointmentService) AdminCreate(ctx context.Context, req *domain.AdminCreateRequest) (*domain.Appointment, error) {
	req.Normalize()
	if req.User == "" || req.Trainer == "" || req.Date == "" || req.Time == "" {
		return nil, apperr.Validation("Missing fields")
	}
	if !validID(req.User) || !validID(req.Trainer) {
		return nil, apperr.Validation("Invalid user or trainer id")
	}

	status := domain.StatusConfirmed
	if req.Status != "" {
		st, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, apperr.Validation("Invalid status")
		}
		status = st
	}
	scolor := req.Scolor
	if scolor == "" {
		scolor = s.defaults.DefaultColor
	}

	appt, err := s.appointmentRepo.Create(ctx, domain.NewAppointment{
		UserID:    req.User,
		TrainerID: req.Trainer,
		Date:      req.Date,
		Time:      req.Time,
		Notes:     req.Notes,
		Price:     s.defaults.DefaultPrice,
		Scolor:    scolor,
		Status:    status,
		Origin:    domain.OriginAdmin,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	logger.InfoContext(ctx, "Appointment created by admin", "appointment_id", appt.ID)
	return appt, nil
}

func (s *appointmentService) AdminUpdate(ctx context.Context, id string, req *domain.AdminUpdateRequest) (*domain.Appointment, error) {
	patch := req.Patch()
	if (patch.UserID != nil && !validID(*patch.UserID)) || (patch.TrainerID != nil && !validID(*patch.TrainerID)) {
		return nil, apperr.Validation("Invalid user or trainer id")
	}

	appt, err := s.appointmentRepo.Update(ctx, id, patch)
	if errors.Is(err, domain.ErrSlotTaken) {
		return nil, apperr.Conflict("User already has an appointment in this slot")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	return appt, nil
}

func (s *appointmentService) AdminDelete(ctx context.Context, id string) error {
	deleted, err := s.appointmentRepo.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return errAppointmentNotFound
	}
	logger.InfoContext(ctx, "Appointment deleted", "appointment_id", id)
	return nil
}

var errAppointmentNotFound = apperr.NotFound("Appointment not found")

func (s *appointmentService) find(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	return appt, nil
}

func (s *appointmentService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}

// announce publishes a stored notification together with the recipient's
// contact details so it can be mailed.
func (s *appointmentService) announce(ctx context.Context, n *domain.Notification) {
	if n == nil {
		return
	}
	event := events.NotificationCreatedEvent{
		NotificationID: n.ID,
		AppointmentID:  n.AppointmentID,
		RecipientID:    n.User,
		Type:           string(n.Type),
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
	recipient, err := s.userRepo.FindByID(ctx, n.User)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load notification recipient", "error", err, "notification_id", n.ID)
	}
	if recipient != nil {
		event.RecipientEmail = recipient.Email
		event.RecipientName = recipient.Name
	}
	s.publish(ctx, events.NotificationCreated, event)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
