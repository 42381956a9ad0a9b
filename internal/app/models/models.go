package models

// RoleType defines the user role type
type RoleType string

const (
	RoleLearner RoleType = "learner"
	RoleAdmin   RoleType = "admin"
)

// IsValid reports whether the role is one the system knows about
func (r RoleType) IsValid() bool {
	return r == RoleLearner || r == RoleAdmin
}
