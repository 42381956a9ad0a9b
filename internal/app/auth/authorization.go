package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/logger"
)

// ErrNotAdmin is returned when an admin-only action is attempted by a learner
var ErrNotAdmin = apperrors.NewForbiddenError("only administrators can perform this action")

// UserLookup is the part of the user repository authorization needs
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService handles authorization operations
type AuthorizationService struct {
	userRepo UserLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo UserLookup) *AuthorizationService {
	return &AuthorizationService{userRepo: userRepo}
}

// GetUserInfo returns the current record of a user
func (s *AuthorizationService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in GetUserInfo")
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// IsAdmin checks the stored role rather than the token claim, so a demoted
// admin loses access before their token expires.
func (s *AuthorizationService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := s.GetUserInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// ValidateAdmin returns ErrNotAdmin unless the user is an administrator
func (s *AuthorizationService) ValidateAdmin(ctx context.Context, userID int64) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// CanViewPost reports whether viewer may read post. Department-scoped posts
// are limited to that department, their author and admins.
func CanViewPost(viewer *models.User, post *models.Post) bool {
	if post == nil {
		return false
	}
	if post.Visibility != models.VisibilityDepartment {
		return true
	}
	if viewer == nil {
		return false
	}
	if viewer.IsAdmin() || viewer.ID == post.AuthorID {
		return true
	}
	return post.VisibilityTarget != nil && *post.VisibilityTarget == viewer.Department
}
