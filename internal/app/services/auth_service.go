package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/auth"
)

// AuthService handles registration, login and the caller's own profile
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.User, error)
	ValidatePassword(password string) error
}

type authServiceImpl struct {
	userRepo repositories.IUserRepository
	tokens   TokenIssuer
	hash     func(string) (string, error)
	check    func(hash, password string) bool
	logger   zerolog.Logger

	// timingHash is compared against when the email is unknown so a failed
	// login costs the same whether or not the account exists
	timingOnce sync.Once
	timingHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.IUserRepository, tokens TokenIssuer, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		hash:     auth.HashPassword,
		check:    auth.CheckPassword,
		logger:   logger,
	}
}

// ValidatePassword checks if password meets requirements
func (s *authServiceImpl) ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password", "password must be at least 8 characters long")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return apperrors.NewValidationError("password", "password must be at most 72 bytes long")
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.NewValidationError("password", "password must contain at least one letter and one digit")
	}
	return nil
}

// Register creates a learner account and signs it in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, apperrors.NewValidationError("passwordConfirm", apperrors.ErrPasswordMismatch.Error())
	}
	if err := s.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:                strings.TrimSpace(req.Name),
		Email:               email,
		Password:            hashed,
		Department:          strings.TrimSpace(req.Department),
		Role:                models.RoleLearner,
		ParticipatingEvents: []string{},
	}
	// the unique constraint still catches a concurrent registration
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info().Int64("userID", user.ID).Str("department", user.Department).Msg("User registered")
	return s.issue(user)
}

// Login authenticates by email and password. Every failure, including an
// unreachable database, is reported as apperrors.ErrInvalidCredentials.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("User lookup failed during login")
		}
		s.timingOnce.Do(func() {
			s.timingHash, _ = s.hash("storetrainer-timing-only")
		})
		s.check(s.timingHash, req.Password)
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.check(user.Password, req.Password) {
		s.logger.Debug().Int64("userID", user.ID).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authServiceImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// Me returns the caller's current record
func (s *authServiceImpl) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's profile
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		update.Name = &name
	}
	if update.Department != nil {
		dept := strings.TrimSpace(*update.Department)
		update.Department = &dept
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
