package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// RecentPostLimit is how many posts the dashboard shows
const RecentPostLimit = 5

// DepartmentLister lists the departments known from registered users
type DepartmentLister interface {
	Departments(ctx context.Context) ([]string, error)
}

// DashboardService assembles the landing-page summary
type DashboardService interface {
	Get(ctx context.Context, userID int64) (*dto.DashboardResponse, error)
	Departments(ctx context.Context) []string
}

type dashboardServiceImpl struct {
	userRepo    repositories.IUserRepository
	eventRepo   repositories.IEventRepository
	postRepo    repositories.IPostRepository
	departments DepartmentLister
	logger      zerolog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	userRepo repositories.IUserRepository,
	eventRepo repositories.IEventRepository,
	postRepo repositories.IPostRepository,
	departments DepartmentLister,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardServiceImpl{
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		postRepo:    postRepo,
		departments: departments,
		logger:      logger,
	}
}

// Get returns the dashboard for a user. Only the user lookup is fatal; each
// section degrades to empty on its own.
func (s *dashboardServiceImpl) Get(ctx context.Context, userID int64) (*dto.DashboardResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	resp := &dto.DashboardResponse{
		User:                dto.NewUserResponse(user),
		ParticipatingEvents: []models.Event{},
		ActiveEvents:        []models.Event{},
		RecentPosts:         []models.Post{},
	}

	if events, err := s.eventRepo.ListByIDs(ctx, user.ParticipatingEvents); err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Dashboard: participating events unavailable")
	} else {
		resp.ParticipatingEvents = events
	}

	if events, err := s.eventRepo.List(ctx, models.EventActive); err != nil {
		s.logger.Error().Err(err).Msg("Dashboard: active events unavailable")
	} else {
		resp.ActiveEvents = events
	}

	if n, err := s.postRepo.CountByAuthor(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Dashboard: post count unavailable")
	} else {
		resp.MyPostCount = n
	}

	filter := models.PostFilter{Department: user.Department, Unscoped: user.IsAdmin()}
	if posts, _, err := s.postRepo.List(ctx, filter, userID, 1, RecentPostLimit); err != nil {
		s.logger.Error().Err(err).Msg("Dashboard: recent posts unavailable")
	} else {
		resp.RecentPosts = posts
	}

	return resp, nil
}

// Departments lists known departments, empty on failure
func (s *dashboardServiceImpl) Departments(ctx context.Context) []string {
	departments, err := s.departments.Departments(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list departments, returning empty list")
		return []string{}
	}
	return departments
}
