package dto

import "github.com/yigit/storetrainer/internal/app/models"

// EventListResponse lists events, optionally marking the ones the caller joined
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

// EventResponse is an event as seen by one user
type EventResponse struct {
	models.Event
	Participating bool `json:"participating"`
}

// ParticipationRequest replaces the caller's participating event list
type ParticipationRequest struct {
	EventIDs []string `json:"eventIds" binding:"max=50,dive,min=1,max=64"`
}

// ParticipationResponse reports the saved list and what changed
type ParticipationResponse struct {
	EventIDs []string `json:"eventIds"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
}
