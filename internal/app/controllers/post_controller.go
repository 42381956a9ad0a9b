package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/services"
	"github.com/yigit/storetrainer/internal/middleware"
	"github.com/yigit/storetrainer/internal/pkg/helpers"
)

// PostController handles community and case post operations
type PostController struct {
	postService services.PostService
	users       UserLoader
	logger      zerolog.Logger
}

// NewPostController creates a new PostController
func NewPostController(postService services.PostService, users UserLoader, logger zerolog.Logger) *PostController {
	return &PostController{
		postService: postService,
		users:       users,
		logger:      logger,
	}
}

// List returns a page of posts visible to the caller
// @Summary List posts
// @Description Department-scoped posts are only listed for members of that department, their author and admins. A storage failure yields an empty page.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param kind query string false "community or case"
// @Param authorId query int false "Author ID"
// @Param eventId query string false "Event ID"
// @Param tag query string false "Tag"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse} "Posts"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /posts [get]
func (c *PostController) List(ctx *gin.Context) {
	viewer, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	var filter dto.PostFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	resp := c.postService.List(ctx.Request.Context(), viewer, filter, page, size)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Create publishes a post
// @Summary Create a post
// @Description Case posts may reference an event; its case count is bumped in the same transaction.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=models.Post} "Created post"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /posts [post]
func (c *PostController) Create(ctx *gin.Context) {
	author, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.Create(ctx.Request.Context(), author, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("authorID", author.ID).Msg("Failed to create post")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post))
}

// Get returns one post and counts the view
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=models.Post} "Post"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Post not found or not visible"
// @Router /posts/{id} [get]
func (c *PostController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	post, err := c.postService.Get(ctx.Request.Context(), viewer, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(post))
}

// React toggles the caller's reaction
// @Summary Toggle a reaction
// @Description Sending the current reaction removes it; a different one replaces it.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.ReactRequest true "Reaction"
// @Success 200 {object} dto.APIResponse{data=dto.ReactionResponse} "Reaction state"
// @Failure 400 {object} dto.ErrorResponse "Invalid reaction"
// @Failure 404 {object} dto.ErrorResponse "Post not found or not visible"
// @Router /posts/{id}/reactions [post]
func (c *PostController) React(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	var req dto.ReactRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.postService.React(ctx.Request.Context(), viewer, id, req.Reaction)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SetAdopted marks a case as adopted into AI training material
// @Summary Set the adoption flag
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body dto.AdoptRequest true "Adoption flag"
// @Success 200 {object} dto.APIResponse "Updated"
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/adopt [put]
func (c *PostController) SetAdopted(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	var req dto.AdoptRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.postService.SetAdopted(ctx.Request.Context(), userID, id, *req.Adopted); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("postID", id).Bool("adopted", *req.Adopted).Int64("actorID", userID).Msg("Post adoption changed")
	ctx.JSON(http.StatusOK, dto.NewSuccessMessage(gin.H{"postId": id, "adopted": *req.Adopted}, "Adoption updated"))
}
