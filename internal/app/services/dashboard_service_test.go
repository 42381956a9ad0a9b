package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

type departmentsFunc func(ctx context.Context) ([]string, error)

func (f departmentsFunc) Departments(ctx context.Context) ([]string, error) { return f(ctx) }

func TestDashboard(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 4, Department: "Electronics", ParticipatingEvents: []string{"year-end-tv"}})
	posts := newFakePostRepo(&models.Post{ID: 1, AuthorID: 4}, &models.Post{ID: 2, AuthorID: 8})
	svc := NewDashboardService(users, seededEvents(), posts, nil, zerolog.Nop())

	resp, err := svc.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.MyPostCount)
	require.Len(t, resp.ParticipatingEvents, 1)
	assert.Equal(t, "year-end-tv", resp.ParticipatingEvents[0].ID)
	require.Len(t, resp.ActiveEvents, 1)
	assert.Len(t, resp.RecentPosts, 2)
}

func TestDashboardDegradesSectionBySection(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 4})
	events := seededEvents()
	events.err = errDown
	posts := newFakePostRepo()
	posts.err = errDown
	svc := NewDashboardService(users, events, posts, nil, zerolog.Nop())

	resp, err := svc.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, resp.ActiveEvents)
	assert.NotNil(t, resp.RecentPosts)
	assert.Zero(t, resp.MyPostCount)

	_, err = svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestDepartments(t *testing.T) {
	ok := NewDashboardService(nil, nil, nil, departmentsFunc(func(context.Context) ([]string, error) {
		return []string{"Electronics", "Kitchen"}, nil
	}), zerolog.Nop())
	assert.Equal(t, []string{"Electronics", "Kitchen"}, ok.Departments(context.Background()))

	failing := NewDashboardService(nil, nil, nil, departmentsFunc(func(context.Context) ([]string, error) {
		return nil, errDown
	}), zerolog.Nop())
	assert.Equal(t, []string{}, failing.Departments(context.Background()))
}
