package dto

import "github.com/yigit/storetrainer/internal/app/models"

// DashboardResponse is the landing-page summary for one user
type DashboardResponse struct {
	User                *UserResponse  `json:"user"`
	ParticipatingEvents []models.Event `json:"participatingEvents"`
	ActiveEvents        []models.Event `json:"activeEvents"`
	MyPostCount         int64          `json:"myPostCount"`
	RecentPosts         []models.Post  `json:"recentPosts"`
}
