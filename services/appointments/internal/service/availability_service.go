package service

import (
	"context"

	"github.com/diagnosis/coachbook/pkg/apperr"
	"github.com/diagnosis/coachbook/pkg/authz"
	"github.com/diagnosis/coachbook/services/appointments/internal/domain"
	"github.com/diagnosis/coachbook/services/appointments/internal/repository"
)

type AvailabilityService interface {
	Set(ctx context.Context, requester authz.Identity, req *domain.SetAvailabilityRequest) (*domain.Availability, error)
	Get(ctx context.Context, trainerID, date string) ([]domain.Availability, error)
}

type availabilityService struct {
	availabilityRepo repository.AvailabilityRepository
}

func NewAvailabilityService(availabilityRepo repository.AvailabilityRepository) AvailabilityService {
	return &availabilityService{availabilityRepo: availabilityRepo}
}

// Set replaces the requester's slots for the date.
func (s *availabilityService) Set(ctx context.Context, requester authz.Identity, req *domain.SetAvailabilityRequest) (*domain.Availability, error) {
	req.Normalize()
	if req.Date == "" || len(req.Slots) == 0 {
		return nil, apperr.Validation("Please add date and slots")
	}
	for _, slot := range req.Slots {
		if slot.Time == "" {
			return nil, apperr.Validation("Every slot needs a time")
		}
	}

	a, err := s.availabilityRepo.Upsert(ctx, requester.ID, req.Date, req.Slots)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *availabilityService) Get(ctx context.Context, trainerID, date string) ([]domain.Availability, error) {
	list, err := s.availabilityRepo.List(ctx, trainerID, date)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}
