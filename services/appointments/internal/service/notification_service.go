package service

import (
	"context"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/diagnosis/coachbook/services/appointments/internal/repository"
)

type NotificationService interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, requester authz.Identity, id string) (*domain.Notification, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	list, err := s.notificationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

// MarkRead is idempotent: an already read notification is returned as is.
func (s *notificationService) MarkRead(ctx context.Context, requester authz.Identity, id string) (*domain.Notification, error) {
	n, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if n == nil {
		return nil, apperr.NotFound("Notification not found")
	}
	if n.User != requester.ID {
		return nil, apperr.Forbidden("Not authorized")
	}
	if n.Read {
		return n, nil
	}

	updated, err := s.notificationRepo.MarkRead(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("Notification not found")
	}
	return updated, nil
}
