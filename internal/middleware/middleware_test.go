package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "storetrainer-test",
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func protectedRouter(m *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{m.JWTAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id, "ok": ok, "department": c.GetString(ContextDepartment)})
	})
	r.GET("/me", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtService := newJWT()
	m := NewAuthMiddleware(jwtService)
	user := &models.User{ID: 42, Email: "ayse@example.com", Role: models.RoleLearner, Department: "Electronics"}
	token, _, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protectedRouter(m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		protectedRouter(m).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Error.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		protectedRouter(m).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Error.Code)
	})

	t.Run("valid header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		protectedRouter(m).ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			UserID     int64  `json:"userId"`
			OK         bool   `json:"ok"`
			Department string `json:"department"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, int64(42), body.UserID)
		assert.True(t, body.OK)
		assert.Equal(t, "Electronics", body.Department)
	})

	t.Run("query token for websocket handshakes", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me?token=Bearer%20"+token, nil)
		protectedRouter(m).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRoleRequired(t *testing.T) {
	jwtService := newJWT()
	m := NewAuthMiddleware(jwtService)

	call := func(role models.RoleType) int {
		token, _, err := jwtService.GenerateAccessToken(&models.User{ID: 7, Email: "x@example.com", Role: role})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		protectedRouter(m, m.RoleRequired(string(models.RoleAdmin))).ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, call(models.RoleLearner))
}

func TestErrorDetailFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
		field  string
	}{
		{apperrors.NewValidationError("title", "title is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "title"},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, ""},
		{apperrors.NewForbiddenError("only admins"), http.StatusForbidden, dto.ErrorCodeForbidden, ""},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, ""},
		{fmt.Errorf("say: %w", apperrors.ErrSessionBusy), http.StatusConflict, dto.ErrorCodeBusy, ""},
		{apperrors.NewResourceNotFoundError("post 9 not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound, ""},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, ""},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, detail := ErrorDetailFor(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, detail.Code)
			assert.Equal(t, tc.field, detail.Field)
		})
	}

	_, detail := ErrorDetailFor(apperrors.NewResourceNotFoundError("post 9 not found"))
	assert.Equal(t, "post 9 not found", detail.Message)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

type bindTarget struct {
	DisplayName string `json:"displayName" binding:"required"`
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	RegisterValidation()

	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", jsonBody(`{}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "displayName", resp.Error.Field)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", jsonBody(`{"displayName":"Ayse"}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

type recordedRequest struct {
	route  string
	method string
	status int
}

type fakeHTTPRecorder struct {
	calls []recordedRequest
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(route, method string, status int, _ time.Duration) {
	f.calls = append(f.calls, recordedRequest{route, method, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	rec := &fakeHTTPRecorder{}
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), Metrics(rec))
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/12", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, recordedRequest{"/posts/:id", http.MethodGet, http.StatusOK}, rec.calls[0])
	assert.Equal(t, recordedRequest{"unmatched", http.MethodGet, http.StatusNotFound}, rec.calls[1])
}
