// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/middleware"
)

// UserLoader resolves the authenticated caller
type UserLoader interface {
	Me(ctx context.Context, userID int64) (*models.User, error)
}

// requireUserID returns the caller's ID or writes a 401
func requireUserID(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return userID, true
}

// loadViewer returns the caller's full profile or writes the error response
func loadViewer(ctx *gin.Context, users UserLoader) (*models.User, bool) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return nil, false
	}
	user, err := users.Me(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return nil, false
	}
	return user, true
}

// parseIDParam parses a positive int64 path parameter or writes a 400
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+name).WithField(name)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
