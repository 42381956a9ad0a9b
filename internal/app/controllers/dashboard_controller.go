package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/app/services"
	"github.com/yigit/storetrainer/internal/middleware"
)

// DashboardController serves the landing summary and reference lists
type DashboardController struct {
	dashboardService services.DashboardService
	logger           zerolog.Logger
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService, logger zerolog.Logger) *DashboardController {
	return &DashboardController{dashboardService: dashboardService, logger: logger}
}

// Get returns the caller's dashboard
// @Summary Get the dashboard
// @Description Sections that fail to load come back empty instead of failing the page
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /dashboard [get]
func (c *DashboardController) Get(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	resp, err := c.dashboardService.Get(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Departments lists known departments
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DepartmentListResponse} "Departments"
// @Router /departments [get]
func (c *DashboardController) Departments(ctx *gin.Context) {
	departments := c.dashboardService.Departments(ctx.Request.Context())
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DepartmentListResponse{Departments: departments}))
}
