package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

type postFixture struct {
	users      *fakeUserRepo
	posts      *fakePostRepo
	events     *fakeEventRepo
	summarizer *fakeSummarizer
	recorder   *countingRecorder
	svc        PostService
}

func newPostFixture(posts ...*models.Post) *postFixture {
	f := &postFixture{
		users: newFakeUserRepo(
			&models.User{ID: 1, Name: "Admin", Role: models.RoleAdmin, Department: "HQ"},
			&models.User{ID: 2, Name: "Learner", Role: models.RoleLearner, Department: "Electronics"},
		),
		posts:      newFakePostRepo(posts...),
		events:     &fakeEventRepo{events: []models.Event{{ID: "year-end-tv", Status: models.EventUpcoming}}},
		summarizer: &fakeSummarizer{summary: "Short summary.", ok: true},
		recorder:   &countingRecorder{},
	}
	f.svc = NewPostService(f.posts, f.events, newTestAuthz(f.users), f.summarizer, f.recorder, zerolog.Nop())
	return f
}

func createReq() *dto.CreatePostRequest {
	return &dto.CreatePostRequest{
		Kind:       models.PostKindCase,
		Title:      "  Bundling a soundbar  ",
		Situation:  "Customer hesitated on a TV",
		Approach:   "Demoed the soundbar",
		Result:     "Sold both",
		Learning:   "Demo audio early",
		Tags:       []string{"#tv", "TV", " audio ", ""},
		Visibility: models.VisibilityPublic,
	}
}

func TestCreatePost(t *testing.T) {
	f := newPostFixture()
	author := &models.User{ID: 2, Name: "Learner", Department: "Electronics"}

	post, err := f.svc.Create(context.Background(), author, createReq())
	require.NoError(t, err)
	assert.Equal(t, "Bundling a soundbar", post.Title)
	assert.Equal(t, []string{"tv", "audio"}, post.Tags)
	require.NotNil(t, post.AISummary)
	assert.Equal(t, "Short summary.", *post.AISummary)
	assert.Equal(t, int64(2), post.AuthorID)
}

func TestCreatePostWithoutSummary(t *testing.T) {
	f := newPostFixture()
	f.summarizer.ok = false

	post, err := f.svc.Create(context.Background(), &models.User{ID: 2}, createReq())
	require.NoError(t, err)
	assert.Nil(t, post.AISummary)
	assert.Len(t, f.posts.created, 1)
}

func TestCreatePostValidation(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	author := &models.User{ID: 2}

	req := createReq()
	req.Visibility = models.VisibilityDepartment
	_, err := f.svc.Create(ctx, author, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	req = createReq()
	req.EventID = strPtr("no-such-event")
	_, err = f.svc.Create(ctx, author, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	req = createReq()
	req.EventID = strPtr("year-end-tv")
	_, err = f.svc.Create(ctx, author, req)
	assert.NoError(t, err)

	assert.Len(t, f.posts.created, 1)
}

func TestCreatePostReportsFailure(t *testing.T) {
	f := newPostFixture()
	f.posts.err = errDown
	_, err := f.svc.Create(context.Background(), &models.User{ID: 2}, createReq())
	assert.ErrorIs(t, err, errDown)
}

var learner = &models.User{ID: 2, Role: models.RoleLearner, Department: "Electronics"}

func TestReactToggleScenario(t *testing.T) {
	f := newPostFixture(&models.Post{ID: 7, Reactions: models.ReactionCounts{Like: 2, Empathy: 1}})
	ctx := context.Background()

	first, err := f.svc.React(ctx, learner, 7, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Reactions.Like)

	second, err := f.svc.React(ctx, learner, 7, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Reactions.Like)
	assert.Nil(t, second.MyReaction)

	_, err = f.svc.React(ctx, learner, 7, models.ReactionLike)
	require.NoError(t, err)
	switched, err := f.svc.React(ctx, learner, 7, models.ReactionEmpathy)
	require.NoError(t, err)
	assert.Equal(t, 2, switched.Reactions.Like)
	assert.Equal(t, 2, switched.Reactions.Empathy)
	assert.Equal(t, 4, switched.Total)
	assert.Equal(t, models.ReactionEmpathy, *switched.MyReaction)

	assert.Len(t, f.recorder.reactions, 4)
}

func TestReactErrors(t *testing.T) {
	f := newPostFixture()
	_, err := f.svc.React(context.Background(), learner, 7, models.ReactionType("love"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.React(context.Background(), learner, 404, models.ReactionLike)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = f.svc.React(context.Background(), nil, 7, models.ReactionLike)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestReactHidesOtherDepartmentsPosts(t *testing.T) {
	kitchen := "Kitchen"
	f := newPostFixture(&models.Post{ID: 5, AuthorID: 9, Visibility: models.VisibilityDepartment, VisibilityTarget: &kitchen})
	ctx := context.Background()

	_, err := f.svc.React(ctx, learner, 5, models.ReactionLike)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.Equal(t, 0, f.posts.posts[5].Reactions.Total())
	assert.Empty(t, f.recorder.reactions)

	admin := &models.User{ID: 1, Role: models.RoleAdmin, Department: "HQ"}
	resp, err := f.svc.React(ctx, admin, 5, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Reactions.Like)
}

func TestListScopesByViewerRole(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	f.svc.List(ctx, learner, dto.PostFilterRequest{}, 1, 10)
	assert.Equal(t, "Electronics", f.posts.filter.Department)
	assert.False(t, f.posts.filter.Unscoped)

	f.svc.List(ctx, &models.User{ID: 1, Role: models.RoleAdmin, Department: "HQ"}, dto.PostFilterRequest{}, 1, 10)
	assert.True(t, f.posts.filter.Unscoped)
}

func TestGetPostCountsViewAndHidesOtherDepartments(t *testing.T) {
	kitchen := "Kitchen"
	f := newPostFixture(
		&models.Post{ID: 1, Visibility: models.VisibilityPublic},
		&models.Post{ID: 2, AuthorID: 9, Visibility: models.VisibilityDepartment, VisibilityTarget: &kitchen},
	)
	viewer := &models.User{ID: 2, Department: "Electronics"}
	ctx := context.Background()

	post, err := f.svc.Get(ctx, viewer, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, post.ViewCount)

	_, err = f.svc.Get(ctx, viewer, 2)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestListReturnsEmptyOnFailure(t *testing.T) {
	f := newPostFixture(&models.Post{ID: 1})
	f.posts.err = errDown

	resp := f.svc.List(context.Background(), &models.User{ID: 2}, dto.PostFilterRequest{}, 1, 10)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Posts)
	assert.NotNil(t, resp.Posts)
	assert.Equal(t, int64(0), resp.TotalItems)
}

func TestSetAdoptedRequiresAdmin(t *testing.T) {
	f := newPostFixture(&models.Post{ID: 3})
	ctx := context.Background()

	err := f.svc.SetAdopted(ctx, 2, 3, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.False(t, f.posts.posts[3].AIAdopted)

	require.NoError(t, f.svc.SetAdopted(ctx, 1, 3, true))
	assert.True(t, f.posts.posts[3].AIAdopted)

	assert.ErrorIs(t, f.svc.SetAdopted(ctx, 1, 404, true), apperrors.ErrResourceNotFound)
}
