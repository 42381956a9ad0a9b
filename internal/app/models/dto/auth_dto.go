package dto

import (
	"time"

	"github.com/yigit/storetrainer/internal/app/models"
)

// RegisterRequest represents a new staff account
type RegisterRequest struct {
	Name            string `json:"name" binding:"required,notblank,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	Department      string `json:"department" binding:"required,notblank,max=100"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// UserResponse is the client-facing view of a user. The password hash never leaves the server.
type UserResponse struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Department          string    `json:"department"`
	Role                string    `json:"role"`
	AvatarURL           *string   `json:"avatarUrl,omitempty"`
	ParticipatingEvents []string  `json:"participatingEvents"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NewUserResponse maps a user model to its response shape
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	events := u.ParticipatingEvents
	if events == nil {
		events = []string{}
	}
	return &UserResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Department:          u.Department,
		Role:                string(u.Role),
		AvatarURL:           u.AvatarURL,
		ParticipatingEvents: events,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// ToModel converts the response back into a user model (client side)
func (r *UserResponse) ToModel() *models.User {
	if r == nil {
		return nil
	}
	return &models.User{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		Department:          r.Department,
		Role:                models.RoleType(r.Role),
		AvatarURL:           r.AvatarURL,
		ParticipatingEvents: r.ParticipatingEvents,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// UpdateProfileRequest is a partial profile update; omitted fields are left untouched
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty" binding:"omitempty,notblank,max=100"`
	Department *string `json:"department,omitempty" binding:"omitempty,max=100"`
	AvatarURL  *string `json:"avatarUrl,omitempty" binding:"omitempty,url"`
}

// ToModel converts the request into a profile update
func (r UpdateProfileRequest) ToModel() models.ProfileUpdate {
	return models.ProfileUpdate{
		Name:       r.Name,
		Department: r.Department,
		AvatarURL:  r.AvatarURL,
	}
}

// DepartmentListResponse lists departments known from registered staff
type DepartmentListResponse struct {
	Departments []string `json:"departments"`
}
