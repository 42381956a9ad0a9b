package models

import "time"

// PostKind distinguishes community knowledge posts from case write-ups
type PostKind string

const (
	PostKindCommunity PostKind = "community"
	PostKindCase      PostKind = "case"
)

// Visibility scopes who should see a post
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityDepartment Visibility = "department"
	VisibilityTheme      Visibility = "theme"
)

// ReactionType is one of the three reactions a viewer can hold on a post
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionEmpathy ReactionType = "empathy"
	ReactionHelpful ReactionType = "helpful"
)

// IsValid reports whether r is a known reaction
func (r ReactionType) IsValid() bool {
	switch r {
	case ReactionLike, ReactionEmpathy, ReactionHelpful:
		return true
	}
	return false
}

// ReactionCounts holds the per-type reaction counters of a post
type ReactionCounts struct {
	Like    int `json:"like" db:"like_count"`
	Empathy int `json:"empathy" db:"empathy_count"`
	Helpful int `json:"helpful" db:"helpful_count"`
}

// Total sums all reaction counters
func (c ReactionCounts) Total() int {
	return c.Like + c.Empathy + c.Helpful
}

// Get returns the counter for one reaction type
func (c ReactionCounts) Get(r ReactionType) int {
	switch r {
	case ReactionLike:
		return c.Like
	case ReactionEmpathy:
		return c.Empathy
	case ReactionHelpful:
		return c.Helpful
	}
	return 0
}

// Add applies delta to one counter, never going below zero
func (c ReactionCounts) Add(r ReactionType, delta int) ReactionCounts {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	switch r {
	case ReactionLike:
		c.Like = clamp(c.Like + delta)
	case ReactionEmpathy:
		c.Empathy = clamp(c.Empathy + delta)
	case ReactionHelpful:
		c.Helpful = clamp(c.Helpful + delta)
	}
	return c
}

// ToggleReaction returns the reaction a user holds after selecting requested
// while holding current. Selecting the held reaction clears it.
func ToggleReaction(current *ReactionType, requested ReactionType) *ReactionType {
	if current != nil && *current == requested {
		return nil
	}
	next := requested
	return &next
}

// ApplyToggle moves one unit from prev to next. Either may be nil.
func (c ReactionCounts) ApplyToggle(prev, next *ReactionType) ReactionCounts {
	if prev != nil {
		c = c.Add(*prev, -1)
	}
	if next != nil {
		c = c.Add(*next, 1)
	}
	return c
}

// Post defines a community or case post based on the 'posts' table
type Post struct {
	ID               int64          `json:"id" db:"id"`
	Kind             PostKind       `json:"kind" db:"kind"`
	AuthorID         int64          `json:"authorId" db:"author_id"`
	AuthorName       string         `json:"authorName" db:"-"`
	AuthorDepartment string         `json:"authorDepartment" db:"-"`
	Title            string         `json:"title" db:"title"`
	Situation        string         `json:"situation" db:"situation"`
	Approach         string         `json:"approach" db:"approach"`
	Result           string         `json:"result" db:"result"`
	Learning         string         `json:"learning" db:"learning"`
	Tags             []string       `json:"tags" db:"tags"`
	Visibility       Visibility     `json:"visibility" db:"visibility"`
	VisibilityTarget *string        `json:"visibilityTarget,omitempty" db:"visibility_target"`
	EventID          *string        `json:"eventId,omitempty" db:"event_id"`
	Reactions        ReactionCounts `json:"reactions"`
	ViewCount        int            `json:"viewCount" db:"view_count"`
	AISummary        *string        `json:"aiSummary,omitempty" db:"ai_summary"`
	AIAdopted        bool           `json:"aiAdopted" db:"ai_adopted"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
	MyReaction       *ReactionType  `json:"myReaction,omitempty" db:"-"`
}

// PostFilter narrows post listings
type PostFilter struct {
	Kind       PostKind
	AuthorID   int64
	EventID    string
	Tag        string
	Department string // viewer department, used to hide other departments' scoped posts
	Unscoped   bool   // viewer is an admin and sees every department's posts
}
