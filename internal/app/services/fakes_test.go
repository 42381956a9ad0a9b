package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/auth"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/app/repositories"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

var errDown = errors.New("database unavailable")

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
	err    error
	// raceOnCreate simulates another request inserting the same email first
	raceOnCreate bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]*models.User{}, nextID: 1}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.raceOnCreate {
		return apperrors.ErrEmailAlreadyExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	updated := update.Apply(*u)
	r.users[id] = &updated
	copied := updated
	return &copied, nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakePostRepo struct {
	mu        sync.Mutex
	posts     map[int64]*models.Post
	reactions map[[2]int64]models.ReactionType
	nextID    int64
	err       error
	created   []*models.Post
	filter    models.PostFilter
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[int64]*models.Post{}, reactions: map[[2]int64]models.ReactionType{}, nextID: 1}
	for _, p := range posts {
		r.posts[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *fakePostRepo) List(_ context.Context, filter models.PostFilter, _ int64, page, size int) ([]models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []models.Post
	for _, p := range r.posts {
		if filter.Kind != "" && p.Kind != filter.Kind {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id, viewerID int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	copied := *p
	if held, ok := r.reactions[[2]int64{id, viewerID}]; ok {
		copied.MyReaction = &held
	}
	return &copied, nil
}

func (r *fakePostRepo) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	post.ID = r.nextID
	r.nextID++
	post.CreatedAt = time.Now()
	copied := *post
	r.posts[post.ID] = &copied
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakePostRepo) IncrementViewCount(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	p.ViewCount++
	return nil
}

func (r *fakePostRepo) ToggleReaction(_ context.Context, postID, userID int64, reaction models.ReactionType) (models.ReactionCounts, *models.ReactionType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return models.ReactionCounts{}, nil, apperrors.ErrPostNotFound
	}
	key := [2]int64{postID, userID}
	var current *models.ReactionType
	if held, ok := r.reactions[key]; ok {
		current = &held
	}
	next := models.ToggleReaction(current, reaction)
	if next == nil {
		delete(r.reactions, key)
	} else {
		r.reactions[key] = *next
	}
	p.Reactions = p.Reactions.ApplyToggle(current, next)
	return p.Reactions, next, nil
}

func (r *fakePostRepo) SetAdopted(_ context.Context, id int64, adopted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return apperrors.ErrPostNotFound
	}
	p.AIAdopted = adopted
	return nil
}

func (r *fakePostRepo) CountByAuthor(_ context.Context, authorID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

type fakeEventRepo struct {
	events []models.Event
	err    error
}

func (r *fakeEventRepo) List(_ context.Context, status models.EventStatus) ([]models.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []models.Event{}
	for _, e := range r.events {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, e := range r.events {
		if e.ID == id {
			copied := e
			return &copied, nil
		}
	}
	return nil, apperrors.ErrEventNotFound
}

func (r *fakeEventRepo) ListByIDs(_ context.Context, ids []string) ([]models.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Event{}
	for _, e := range r.events {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) KnownIDs(_ context.Context, ids []string) (map[string]bool, error) {
	if r.err != nil {
		return nil, r.err
	}
	known := map[string]bool{}
	for _, id := range ids {
		for _, e := range r.events {
			if e.ID == id {
				known[id] = true
			}
		}
	}
	return known, nil
}

type fakeParticipationRepo struct {
	mu      sync.Mutex
	links   map[int64]map[string]bool
	applied int
	err     error
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{links: map[int64]map[string]bool{}}
}

func (r *fakeParticipationRepo) ListEventIDs(_ context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return sortedKeys(r.links[userID]), nil
}

func (r *fakeParticipationRepo) Replace(ctx context.Context, userID int64, desired []string, check repositories.AddedCheck) (*models.ParticipationChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	current := sortedKeys(r.links[userID])
	change := &models.ParticipationChange{EventIDs: current}
	change.Added, change.Removed = models.DiffEventIDs(current, desired)
	if !change.Changed() {
		return change, nil
	}
	if len(change.Added) > 0 && check != nil {
		if err := check(ctx, change.Added); err != nil {
			return nil, err
		}
	}

	r.applied++
	if r.links[userID] == nil {
		r.links[userID] = map[string]bool{}
	}
	for _, id := range change.Removed {
		delete(r.links[userID], id)
	}
	for _, id := range change.Added {
		r.links[userID][id] = true
	}
	change.EventIDs = sortedKeys(r.links[userID])
	return change, nil
}

func sortedKeys(set map[string]bool) []string {
	ids := []string{}
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(user *models.User) (string, int, error) {
	return "token-for-" + user.Email, 900, nil
}

type fakeSummarizer struct {
	summary string
	ok      bool
	calls   int
}

func (f *fakeSummarizer) Summarize(context.Context, ai.SummaryPromptData) (string, bool) {
	f.calls++
	return f.summary, f.ok
}

type countingRecorder struct {
	mu        sync.Mutex
	reactions []string
}

func (c *countingRecorder) RecordReaction(r string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions = append(c.reactions, r)
}

func cheapHash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func newTestAuthService(repo *fakeUserRepo) *authServiceImpl {
	svc := NewAuthService(repo, fakeTokens{}, zerolog.Nop()).(*authServiceImpl)
	svc.hash = cheapHash
	return svc
}

func newTestAuthz(repo *fakeUserRepo) *auth.AuthorizationService {
	return auth.NewAuthorizationService(repo)
}

func strPtr(s string) *string { return &s }
