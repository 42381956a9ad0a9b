// Package seed creates the default data the application expects at startup
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// UserStore is the subset of the user repository seeding needs
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// AdminAccount describes the administrator to create
type AdminAccount struct {
	Name       string
	Email      string
	Password   string
	Department string
}

// EnsureAdmin creates the administrator account if its email is unused.
// An empty email or password disables seeding.
func EnsureAdmin(ctx context.Context, users UserStore, hash func(string) (string, error), admin AdminAccount, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Debug().Msg("Admin seeding disabled")
		return nil
	}

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		lgr.Debug().Str("email", email).Msg("Admin account already present")
		return nil
	}

	hashed, err := hash(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	department := admin.Department
	if department == "" {
		department = "Head Office"
	}

	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   hashed,
		Department: department,
		Role:       models.RoleAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		// Another instance won the race
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create admin account: %w", err)
	}

	lgr.Info().Str("email", email).Int64("userID", user.ID).Msg("Admin account created")
	return nil
}
