package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                  int64     `json:"id" db:"id" example:"1"`
	Name                string    `json:"name" db:"name" example:"Ayşe Kaya"`
	Email               string    `json:"email" db:"email" example:"ayse@store.example"`
	Password            string    `json:"-" db:"password"` // bcrypt hash, never serialized
	Department          string    `json:"department" db:"department" example:"Electronics"`
	Role                RoleType  `json:"role" db:"role" example:"learner"`
	AvatarURL           *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	ParticipatingEvents []string  `json:"participatingEvents" db:"-"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user has administrative rights
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsParticipating reports whether the user has joined the given event
func (u *User) IsParticipating(eventID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.ParticipatingEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// ProfileUpdate carries a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Department == nil && p.AvatarURL == nil
}

// Apply merges the update into a copy of the user and returns it
func (p ProfileUpdate) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.AvatarURL != nil {
		avatar := *p.AvatarURL
		u.AvatarURL = &avatar
	}
	return u
}
