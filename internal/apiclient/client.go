// Package apiclient is a typed HTTP client for the /api/v1 surface, used by
// coachctl and as the remote gateway of the session store.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
)

// ErrTransport marks requests that never produced an HTTP response
var ErrTransport = errors.New("api unreachable")

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s, field %s): %s", http.StatusText(e.Status), e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", http.StatusText(e.Status), e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client talks to a storetrainer API server
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL, e.g. http://localhost:8080/api/v1
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do sends one request and decodes the response's data field into out
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
		var er dto.ErrorResponse
		if json.Unmarshal(resp.Body(), &er) == nil && er.Error != nil {
			apiErr.Code = er.Error.Code
			apiErr.Message = er.Error.Message
			apiErr.Field = er.Error.Field
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

// Login exchanges credentials for a token and the stored profile
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn implements session.Gateway
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	resp, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if resp.User == nil || resp.Token.AccessToken == "" {
		return nil, "", errors.New("login response missing user or token")
	}
	return resp.User.ToModel(), resp.Token.AccessToken, nil
}

// UpdateProfile implements session.Gateway
func (c *Client) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.User, error) {
	body := dto.UpdateProfileRequest{Name: update.Name, Department: update.Department, AvatarURL: update.AvatarURL}
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/auth/profile", token, body, &out); err != nil {
		return nil, err
	}
	return out.ToModel(), nil
}

// Me returns the profile the token belongs to
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return out.ToModel(), nil
}

// Events lists events, optionally by status
func (c *Client) Events(ctx context.Context, token string, status models.EventStatus) ([]dto.EventResponse, error) {
	path := "/events"
	if status != "" {
		path += "?status=" + string(status)
	}
	var out dto.EventListResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// SaveParticipation replaces the caller's participating events
func (c *Client) SaveParticipation(ctx context.Context, token string, eventIDs []string) (*dto.ParticipationResponse, error) {
	if eventIDs == nil {
		eventIDs = []string{}
	}
	var out dto.ParticipationResponse
	if err := c.do(ctx, http.MethodPut, "/events/participation", token, dto.ParticipationRequest{EventIDs: eventIDs}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond asks for the next practice reply
func (c *Client) Respond(ctx context.Context, token string, req dto.RespondRequest) (string, error) {
	var out dto.RespondResponse
	if err := c.do(ctx, http.MethodPost, "/simulation/respond", token, req, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Evaluate scores a finished transcript
func (c *Client) Evaluate(ctx context.Context, token string, req dto.EvaluateRequest) (ai.EvaluationResult, error) {
	var out ai.EvaluationResult
	if err := c.do(ctx, http.MethodPost, "/simulation/evaluate", token, req, &out); err != nil {
		return ai.EvaluationResult{}, err
	}
	return out, nil
}
