package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/services"
	"github.com/yigit/storetrainer/internal/middleware"
)

// SimulationController serves the stateless practice endpoints. Both always
// answer 200 with usable content; AI failures fall back server-side.
type SimulationController struct {
	simulationService services.SimulationService
	logger            zerolog.Logger
}

// NewSimulationController creates a new SimulationController
func NewSimulationController(simulationService services.SimulationService, logger zerolog.Logger) *SimulationController {
	return &SimulationController{simulationService: simulationService, logger: logger}
}

// Respond returns the AI persona's next line
// @Summary Get the next practice reply
// @Tags simulation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RespondRequest true "Message, persona and history"
// @Success 200 {object} dto.APIResponse{data=dto.RespondResponse} "Reply"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Router /simulation/respond [post]
func (c *SimulationController) Respond(ctx *gin.Context) {
	var req dto.RespondRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reply := c.simulationService.Respond(ctx.Request.Context(), &req)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RespondResponse{Reply: reply}))
}

// Evaluate scores a finished transcript
// @Summary Evaluate a practice transcript
// @Tags simulation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EvaluateRequest true "Transcript"
// @Success 200 {object} dto.APIResponse{data=ai.EvaluationResult} "Evaluation"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Router /simulation/evaluate [post]
func (c *SimulationController) Evaluate(ctx *gin.Context) {
	var req dto.EvaluateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result := c.simulationService.Evaluate(ctx.Request.Context(), &req)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
