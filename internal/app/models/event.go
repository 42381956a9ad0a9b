package models

import "time"

// EventStatus is the lifecycle state of a sales event
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
)

// IsValid reports whether s is a known status
func (s EventStatus) IsValid() bool {
	return s == EventUpcoming || s == EventActive || s == EventCompleted
}

// EssentialKnowledge is the briefing staff should know before an event
type EssentialKnowledge struct {
	Summary      string   `json:"summary"`
	KeyPoints    []string `json:"keyPoints"`
	ProductFocus []string `json:"productFocus"`
}

// Event is read-only reference data describing a store campaign
type Event struct {
	ID               string             `json:"id" db:"id"`
	Name             string             `json:"name" db:"name"`
	StartDate        time.Time          `json:"startDate" db:"start_date"`
	EndDate          time.Time          `json:"endDate" db:"end_date"`
	Status           EventStatus        `json:"status" db:"status"`
	Tags             []string           `json:"tags" db:"tags"`
	Stores           []string           `json:"stores" db:"stores"`
	ParticipantCount int                `json:"participantCount" db:"participant_count"`
	CaseCount        int                `json:"caseCount" db:"case_count"`
	Knowledge        EssentialKnowledge `json:"essentialKnowledge" db:"essential_knowledge"`
}

// DiffEventIDs compares the saved participation list with the desired one.
// Duplicates and blank IDs in desired are ignored; output keeps desired order.
func DiffEventIDs(current, desired []string) (added, removed []string) {
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		if id == "" || want[id] {
			continue
		}
		want[id] = true
		if !have[id] {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !want[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// ParticipationChange is the outcome of replacing a user's participation list
type ParticipationChange struct {
	EventIDs []string
	Added    []string
	Removed  []string
}

// Changed reports whether anything was written
func (c ParticipationChange) Changed() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0
}
