package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// EventService exposes the seeded events and the caller's participation in them
type EventService interface {
	List(ctx context.Context, viewer *models.User, status models.EventStatus) []dto.EventResponse
	Get(ctx context.Context, viewer *models.User, id string) (*dto.EventResponse, error)
	GetParticipation(ctx context.Context, userID int64) ([]string, error)
	SaveParticipation(ctx context.Context, userID int64, eventIDs []string) (*dto.ParticipationResponse, error)
}

type eventServiceImpl struct {
	eventRepo         repositories.IEventRepository
	participationRepo repositories.IParticipationRepository
	logger            zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repositories.IEventRepository, participationRepo repositories.IParticipationRepository, logger zerolog.Logger) EventService {
	return &eventServiceImpl{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		logger:            logger,
	}
}

func toEventResponse(e models.Event, viewer *models.User) dto.EventResponse {
	return dto.EventResponse{Event: e, Participating: viewer.IsParticipating(e.ID)}
}

// List returns events, empty on failure
func (s *eventServiceImpl) List(ctx context.Context, viewer *models.User, status models.EventStatus) []dto.EventResponse {
	events, err := s.eventRepo.List(ctx, status)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(status)).Msg("Failed to list events, returning empty list")
		return []dto.EventResponse{}
	}

	out := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e, viewer))
	}
	return out
}

// Get returns one event
func (s *eventServiceImpl) Get(ctx context.Context, viewer *models.User, id string) (*dto.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return nil, apperrors.NewResourceNotFoundError("event not found")
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	resp := toEventResponse(*event, viewer)
	return &resp, nil
}

// GetParticipation returns the IDs of the events the user joined
func (s *eventServiceImpl) GetParticipation(ctx context.Context, userID int64) ([]string, error) {
	ids, err := s.participationRepo.ListEventIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	return ids, nil
}

// SaveParticipation replaces the user's participation list. Only the
// difference to the stored list is written, in one transaction.
func (s *eventServiceImpl) SaveParticipation(ctx context.Context, userID int64, eventIDs []string) (*dto.ParticipationResponse, error) {
	desired := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		desired = append(desired, strings.TrimSpace(id))
	}

	change, err := s.participationRepo.Replace(ctx, userID, desired, s.checkKnownEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to save participation: %w", err)
	}

	if change.Changed() {
		s.logger.Info().
			Int64("userID", userID).
			Strs("added", change.Added).
			Strs("removed", change.Removed).
			Msg("Participation saved")
	}

	return &dto.ParticipationResponse{
		EventIDs: nonNil(change.EventIDs),
		Added:    nonNil(change.Added),
		Removed:  nonNil(change.Removed),
	}, nil
}

func (s *eventServiceImpl) checkKnownEvents(ctx context.Context, added []string) error {
	known, err := s.eventRepo.KnownIDs(ctx, added)
	if err != nil {
		return fmt.Errorf("failed to check events: %w", err)
	}
	for _, id := range added {
		if !known[id] {
			return apperrors.NewValidationError("eventIds", fmt.Sprintf("%s: %s", apperrors.ErrUnknownEvent, id))
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
