package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/auth"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/helpers"
)

// PostService defines the interface for community and case post operations
type PostService interface {
	List(ctx context.Context, viewer *models.User, filter dto.PostFilterRequest, page, size int) *dto.PostListResponse
	Get(ctx context.Context, viewer *models.User, id int64) (*models.Post, error)
	Create(ctx context.Context, author *models.User, req *dto.CreatePostRequest) (*models.Post, error)
	React(ctx context.Context, viewer *models.User, postID int64, reaction models.ReactionType) (*dto.ReactionResponse, error)
	SetAdopted(ctx context.Context, actorID, postID int64, adopted bool) error
}

type postServiceImpl struct {
	postRepo   repositories.IPostRepository
	eventRepo  repositories.IEventRepository
	authz      *auth.AuthorizationService
	summarizer Summarizer
	reactions  ReactionRecorder
	logger     zerolog.Logger
}

// NewPostService creates a new PostService. summarizer and reactions may be nil.
func NewPostService(
	postRepo repositories.IPostRepository,
	eventRepo repositories.IEventRepository,
	authz *auth.AuthorizationService,
	summarizer Summarizer,
	reactions ReactionRecorder,
	logger zerolog.Logger,
) PostService {
	return &postServiceImpl{
		postRepo:   postRepo,
		eventRepo:  eventRepo,
		authz:      authz,
		summarizer: summarizer,
		reactions:  reactions,
		logger:     logger,
	}
}

// List returns one page of posts visible to viewer. A failed query yields an
// empty page, never an error.
func (s *postServiceImpl) List(ctx context.Context, viewer *models.User, filter dto.PostFilterRequest, page, size int) *dto.PostListResponse {
	f := models.PostFilter{
		Kind:     models.PostKind(filter.Kind),
		AuthorID: filter.AuthorID,
		EventID:  filter.EventID,
		Tag:      filter.Tag,
	}
	var viewerID int64
	if viewer != nil {
		viewerID = viewer.ID
		f.Department = viewer.Department
		f.Unscoped = viewer.IsAdmin()
	}

	posts, total, err := s.postRepo.List(ctx, f, viewerID, page, size)
	if err != nil {
		s.logger.Error().Err(err).Interface("filter", filter).Msg("Failed to list posts, returning empty list")
		posts, total = []models.Post{}, 0
	}

	return &dto.PostListResponse{
		Posts:          posts,
		PaginationInfo: helpers.NewPaginationInfo(total, page, size),
	}
}

// Get returns a post and counts the view
func (s *postServiceImpl) Get(ctx context.Context, viewer *models.User, id int64) (*models.Post, error) {
	var viewerID int64
	if viewer != nil {
		viewerID = viewer.ID
	}

	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewResourceNotFoundError("post not found")
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if !auth.CanViewPost(viewer, post) {
		// same answer as a missing post
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}

	if err := s.postRepo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("postID", id).Msg("Failed to count post view")
	} else {
		post.ViewCount++
	}
	return post, nil
}

// Create validates and stores a post, attaching an AI summary when one can be produced
func (s *postServiceImpl) Create(ctx context.Context, author *models.User, req *dto.CreatePostRequest) (*models.Post, error) {
	if author == nil {
		return nil, apperrors.ErrPermissionDenied
	}
	post := req.ToModel(author)
	post.Title = strings.TrimSpace(post.Title)
	post.Tags = normalizeTags(post.Tags)

	if post.Visibility != models.VisibilityPublic {
		if post.VisibilityTarget == nil || strings.TrimSpace(*post.VisibilityTarget) == "" {
			return nil, apperrors.NewValidationError("visibilityTarget", "visibilityTarget is required unless visibility is public")
		}
	} else {
		post.VisibilityTarget = nil
	}

	if post.EventID != nil {
		known, err := s.eventRepo.KnownIDs(ctx, []string{*post.EventID})
		if err != nil {
			return nil, fmt.Errorf("failed to check event: %w", err)
		}
		if !known[*post.EventID] {
			return nil, apperrors.NewValidationError("eventId", apperrors.ErrUnknownEvent.Error())
		}
	}

	if s.summarizer != nil {
		summary, ok := s.summarizer.Summarize(ctx, ai.SummaryPromptData{
			Title:     post.Title,
			Situation: post.Situation,
			Approach:  post.Approach,
			Result:    post.Result,
			Learning:  post.Learning,
		})
		if ok {
			post.AISummary = &summary
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info().
		Int64("postID", post.ID).
		Str("kind", string(post.Kind)).
		Bool("summarized", post.AISummary != nil).
		Msg("Post created")
	return post, nil
}

// normalizeTags trims, drops blanks and de-duplicates case-insensitively
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// React toggles the viewer's reaction on a post the viewer can see
func (s *postServiceImpl) React(ctx context.Context, viewer *models.User, postID int64, reaction models.ReactionType) (*dto.ReactionResponse, error) {
	if viewer == nil {
		return nil, apperrors.ErrPermissionDenied
	}
	if !reaction.IsValid() {
		return nil, apperrors.NewValidationError("reaction", apperrors.ErrInvalidReactionType.Error())
	}

	post, err := s.postRepo.GetByID(ctx, postID, viewer.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewResourceNotFoundError("post not found")
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if !auth.CanViewPost(viewer, post) {
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}

	counts, held, err := s.postRepo.ToggleReaction(ctx, postID, viewer.ID, reaction)
	if err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return nil, apperrors.NewResourceNotFoundError("post not found")
		}
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}
	if s.reactions != nil {
		s.reactions.RecordReaction(string(reaction))
	}

	return &dto.ReactionResponse{PostID: postID, Reactions: counts, Total: counts.Total(), MyReaction: held}, nil
}

// SetAdopted marks a post as adopted into the AI knowledge base (admins only)
func (s *postServiceImpl) SetAdopted(ctx context.Context, actorID, postID int64, adopted bool) error {
	if err := s.authz.ValidateAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.postRepo.SetAdopted(ctx, postID, adopted); err != nil {
		if errors.Is(err, apperrors.ErrPostNotFound) {
			return apperrors.NewResourceNotFoundError("post not found")
		}
		return fmt.Errorf("failed to update adoption: %w", err)
	}
	s.logger.Info().Int64("postID", postID).Int64("actorID", actorID).Bool("adopted", adopted).Msg("Post adoption changed")
	return nil
}
