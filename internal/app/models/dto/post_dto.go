package dto

import "github.com/yigit/storetrainer/internal/app/models"

// CreatePostRequest represents a new community or case post
type CreatePostRequest struct {
	Kind             models.PostKind   `json:"kind" binding:"required,oneof=community case"`
	Title            string            `json:"title" binding:"required,notblank,max=200"`
	Situation        string            `json:"situation" binding:"required,notblank"`
	Approach         string            `json:"approach" binding:"required,notblank"`
	Result           string            `json:"result" binding:"required,notblank"`
	Learning         string            `json:"learning" binding:"required,notblank"`
	Tags             []string          `json:"tags" binding:"max=10,dive,tagname"`
	Visibility       models.Visibility `json:"visibility" binding:"required,oneof=public department theme"`
	VisibilityTarget *string           `json:"visibilityTarget,omitempty" binding:"omitempty,max=100"`
	EventID          *string           `json:"eventId,omitempty"`
}

// ToModel converts the request into a post owned by author
func (r CreatePostRequest) ToModel(author *models.User) *models.Post {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	post := &models.Post{
		Kind:             r.Kind,
		Title:            r.Title,
		Situation:        r.Situation,
		Approach:         r.Approach,
		Result:           r.Result,
		Learning:         r.Learning,
		Tags:             tags,
		Visibility:       r.Visibility,
		VisibilityTarget: r.VisibilityTarget,
		EventID:          r.EventID,
	}
	if author != nil {
		post.AuthorID = author.ID
		post.AuthorName = author.Name
		post.AuthorDepartment = author.Department
	}
	return post
}

// PostFilterRequest represents post listing query parameters
type PostFilterRequest struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=community case"`
	AuthorID int64  `form:"authorId" binding:"omitempty,min=1"`
	EventID  string `form:"eventId"`
	Tag      string `form:"tag"`
}

// PostListResponse represents a page of posts
type PostListResponse struct {
	Posts []models.Post `json:"posts"`
	PaginationInfo
}

// ReactRequest toggles the caller's reaction on a post
type ReactRequest struct {
	Reaction models.ReactionType `json:"reaction" binding:"required,oneof=like empathy helpful"`
}

// ReactionResponse reports the post's reaction state after a toggle
type ReactionResponse struct {
	PostID     int64                 `json:"postId"`
	Reactions  models.ReactionCounts `json:"reactions"`
	Total      int                   `json:"total"`
	MyReaction *models.ReactionType  `json:"myReaction"`
}

// AdoptRequest sets the AI-adoption flag of a post
type AdoptRequest struct {
	Adopted *bool `json:"adopted" binding:"required"`
}
