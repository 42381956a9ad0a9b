package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/services"
	"github.com/yigit/storetrainer/internal/middleware"
)

// EventController handles sales event listing and participation
type EventController struct {
	eventService services.EventService
	users        UserLoader
	logger       zerolog.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, users UserLoader, logger zerolog.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		users:        users,
		logger:       logger,
	}
}

// List returns events, optionally filtered by status
// @Summary List events
// @Description A storage failure yields an empty list.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param status query string false "upcoming, active or completed"
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse} "Events"
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Router /events [get]
func (c *EventController) List(ctx *gin.Context) {
	viewer, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	status := models.EventStatus(ctx.Query("status"))
	if status != "" && !status.IsValid() {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status").WithField("status")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	events := c.eventService.List(ctx.Request.Context(), viewer, status)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EventListResponse{Events: events}))
}

// Get returns one event
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse} "Event"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) Get(ctx *gin.Context) {
	viewer, ok := loadViewer(ctx, c.users)
	if !ok {
		return
	}

	event, err := c.eventService.Get(ctx.Request.Context(), viewer, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(event))
}

// GetParticipation returns the caller's participating event IDs
// @Summary Get my participation
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ParticipationResponse} "Participation"
// @Router /events/participation [get]
func (c *EventController) GetParticipation(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	ids, err := c.eventService.GetParticipation(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ParticipationResponse{
		EventIDs: ids,
		Added:    []string{},
		Removed:  []string{},
	}))
}

// SaveParticipation replaces the caller's participating events
// @Summary Save my participation
// @Description Only the difference against the stored list is written, in one transaction.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ParticipationRequest true "Desired event IDs"
// @Success 200 {object} dto.APIResponse{data=dto.ParticipationResponse} "Saved participation"
// @Failure 400 {object} dto.ErrorResponse "Unknown event ID"
// @Router /events/participation [put]
func (c *EventController) SaveParticipation(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	var req dto.ParticipationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.eventService.SaveParticipation(ctx.Request.Context(), userID, req.EventIDs)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to save participation")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
