package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/apiclient"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/session"
)

type fakePracticeAPI struct {
	requests  []dto.RespondRequest
	evaluated *dto.EvaluateRequest
	err       error
}

func (f *fakePracticeAPI) Respond(_ context.Context, _ string, req dto.RespondRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return "reply " + req.Message, nil
}

func (f *fakePracticeAPI) Evaluate(_ context.Context, _ string, req dto.EvaluateRequest) (ai.EvaluationResult, error) {
	f.evaluated = &req
	return ai.EvaluationResult{OverallScore: 82, Strengths: []string{"Friendly greeting"}}, nil
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(10 * time.Second)
		return t
	}
}

func TestRunPracticeCarriesHistoryAndEvaluates(t *testing.T) {
	api := &fakePracticeAPI{}
	var out bytes.Buffer
	in := strings.NewReader("Hello, can I help?\n\nWe have it in blue.\n/evaluate\n")

	err := runPractice(context.Background(), in, &out, api, "tok", ai.Persona("nobody"), "color question", fixedClock())
	require.NoError(t, err)

	require.Len(t, api.requests, 2)
	assert.Equal(t, "customer", api.requests[0].Persona)
	assert.Empty(t, api.requests[0].History)
	require.Len(t, api.requests[1].History, 2)
	assert.Equal(t, "Hello, can I help?", api.requests[1].History[0].Content)

	require.NotNil(t, api.evaluated)
	assert.Len(t, api.evaluated.Transcript, 4)
	assert.Equal(t, "color question", api.evaluated.Scenario)
	assert.Greater(t, api.evaluated.DurationSeconds, 0)

	assert.Contains(t, out.String(), "Overall score: 82/100")
	assert.Contains(t, out.String(), "Friendly greeting")
}

func TestRunPracticeQuitSkipsEvaluation(t *testing.T) {
	api := &fakePracticeAPI{}
	var out bytes.Buffer

	err := runPractice(context.Background(), strings.NewReader("Hi\n/quit\n"), &out, api, "tok", ai.PersonaAssistant, "", fixedClock())
	require.NoError(t, err)
	assert.Nil(t, api.evaluated)
	assert.Contains(t, out.String(), "without evaluation")
}

func TestRunPracticeEmptyInputSkipsEvaluation(t *testing.T) {
	api := &fakePracticeAPI{}
	err := runPractice(context.Background(), strings.NewReader(""), &bytes.Buffer{}, api, "tok", ai.PersonaCustomer, "", fixedClock())
	require.NoError(t, err)
	assert.Nil(t, api.evaluated)
}

func TestRunPracticeSurfacesAPIErrors(t *testing.T) {
	api := &fakePracticeAPI{err: errors.New("unauthorized")}
	err := runPractice(context.Background(), strings.NewReader("Hi\n"), &bytes.Buffer{}, api, "tok", ai.PersonaCustomer, "", fixedClock())
	assert.ErrorContains(t, err, "unauthorized")
}

func TestAppTokenRejectsGuests(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryStorage(), nil, testLogger())
	a := &app{store: store}

	_, err := a.token()
	assert.ErrorIs(t, err, errGuestSession)

	require.NoError(t, store.SignIn(ctx, "", ""))
	_, err = a.token()
	assert.ErrorIs(t, err, errGuestSession)
}

func TestRefreshProfileClearsExpiredSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dto.NewSuccessResponse(dto.AuthResponse{
			Token: dto.TokenResponse{AccessToken: "stale"},
			User:  &dto.UserResponse{ID: 4, Name: "Ayse", Email: "ayse@example.com"},
		}))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token has expired")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	client := apiclient.New(srv.URL, time.Second)
	a := &app{client: client, store: session.NewStore(session.NewMemoryStorage(), client, testLogger())}
	require.NoError(t, a.store.SignIn(ctx, "ayse@example.com", "Secret123"))

	err := refreshProfile(ctx, a)
	assert.ErrorIs(t, err, errSessionExpired)
	assert.False(t, a.store.Current().SignedIn())
}

func TestProfileUpdateFromFlags(t *testing.T) {
	cmd := newProfileCmd()
	require.NoError(t, cmd.Flags().Set("department", "Kitchen"))

	update := profileUpdateFromFlags(cmd, "", "Kitchen", "")
	assert.Nil(t, update.Name)
	assert.Nil(t, update.AvatarURL)
	require.NotNil(t, update.Department)
	assert.Equal(t, "Kitchen", *update.Department)

	assert.True(t, profileUpdateFromFlags(&cobra.Command{}, "", "", "").IsEmpty())
}

func TestPrintState(t *testing.T) {
	var out bytes.Buffer
	printState(&out, session.State{})
	assert.Equal(t, "Not signed in.\n", out.String())

	out.Reset()
	printState(&out, session.State{User: session.GuestUser(), Guest: true})
	assert.Contains(t, out.String(), "Guest (guest)")
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
