// Package session keeps the signed-in identity of the terminal client across
// restarts. A Store is created explicitly, restored with Init and released
// with Dispose; there is no package-level session state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// StorageKey is the fixed key holding the persisted envelope
const StorageKey = "storetrainer.session"

// EnvelopeVersion is bumped whenever the persisted layout changes
const EnvelopeVersion = 1

// ErrNotSignedIn is returned by operations that need an identity
var ErrNotSignedIn = errors.New("not signed in")

// Envelope is the persisted form of a session
type Envelope struct {
	Version int          `json:"version"`
	User    *models.User `json:"user"`
	Token   string       `json:"token,omitempty"`
	Guest   bool         `json:"guest,omitempty"`
	SavedAt time.Time    `json:"savedAt"`
}

// State is the in-memory session
type State struct {
	User  *models.User
	Token string
	Guest bool
}

// SignedIn reports whether a user (possibly a guest) is present
func (s State) SignedIn() bool { return s.User != nil }

// Gateway is the remote side of sign-in and profile updates
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.User, error)
}

// Encode serializes a signed-in state into a versioned envelope
func Encode(state State, savedAt time.Time) ([]byte, error) {
	if state.User == nil {
		return nil, ErrNotSignedIn
	}
	return json.Marshal(Envelope{
		Version: EnvelopeVersion,
		User:    state.User,
		Token:   state.Token,
		Guest:   state.Guest,
		SavedAt: savedAt.UTC(),
	})
}

// Decode parses a persisted envelope. Unknown versions and envelopes without
// a user are rejected.
func Decode(data []byte) (State, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, fmt.Errorf("decode session envelope: %w", err)
	}
	if env.Version != EnvelopeVersion {
		return State{}, fmt.Errorf("unsupported session envelope version %d", env.Version)
	}
	if env.User == nil {
		return State{}, errors.New("session envelope has no user")
	}
	return State{User: env.User, Token: env.Token, Guest: env.Guest}, nil
}

// Store holds the current identity and mirrors it into Storage
type Store struct {
	mu      sync.RWMutex
	storage Storage
	gateway Gateway
	logger  zerolog.Logger
	now     func() time.Time
	state   State
}

// NewStore creates a Store. Call Init before use and Dispose when done.
func NewStore(storage Storage, gateway Gateway, logger zerolog.Logger) *Store {
	return &Store{
		storage: storage,
		gateway: gateway,
		logger:  logger.With().Str("component", "session").Logger(),
		now:     time.Now,
	}
}

// Init restores any persisted session
func (s *Store) Init(ctx context.Context) error {
	_, err := s.Restore(ctx)
	return err
}

// Dispose releases the underlying storage
func (s *Store) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return s.storage.Close()
}

// Restore loads the persisted envelope. A corrupt or outdated entry is
// removed and the store ends up signed out; only storage failures are errors.
func (s *Store) Restore(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		return State{}, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		s.state = State{}
		return s.state, nil
	}

	state, err := Decode(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discarding unreadable session entry")
		s.state = State{}
		if delErr := s.storage.Delete(ctx, StorageKey); delErr != nil {
			return State{}, fmt.Errorf("clear corrupt session: %w", delErr)
		}
		return s.state, nil
	}

	s.state = state
	return s.state, nil
}

// Current returns a snapshot of the session
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// GuestUser is the identity used for the empty-credential sign-in
func GuestUser() *models.User {
	return &models.User{
		Name:                "Guest",
		Role:                models.RoleLearner,
		ParticipatingEvents: []string{},
	}
}

// SignIn authenticates through the gateway. Empty email and password sign
// in as a local guest without contacting the server. Any other failure is
// reported as apperrors.ErrInvalidCredentials.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	var next State
	if email == "" && password == "" {
		next = State{User: GuestUser(), Guest: true}
	} else {
		user, token, err := s.gateway.SignIn(ctx, email, password)
		if err != nil || user == nil {
			s.logger.Debug().Err(err).Msg("Sign-in rejected")
			return apperrors.ErrInvalidCredentials
		}
		next = State{User: user, Token: token}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// SignOut clears the persisted entry and the in-memory state
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial update remotely and re-persists the merged
// user. It returns false and leaves the state untouched when no one is
// signed in or any step fails. Guest profiles only change locally.
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return false
	}

	var updated models.User
	if s.state.Guest {
		updated = update.Apply(*s.state.User)
	} else {
		remote, err := s.gateway.UpdateProfile(ctx, s.state.Token, update)
		if err != nil || remote == nil {
			s.logger.Warn().Err(err).Msg("Profile update failed")
			return false
		}
		updated = update.Apply(*s.state.User)
		updated.Name, updated.Department, updated.AvatarURL = remote.Name, remote.Department, remote.AvatarURL
		updated.UpdatedAt = remote.UpdatedAt
	}

	next := State{User: &updated, Token: s.state.Token, Guest: s.state.Guest}
	if err := s.persist(ctx, next); err != nil {
		s.logger.Warn().Err(err).Msg("Profile updated remotely but could not be saved locally")
		return false
	}
	s.state = next
	return true
}

// ReplaceUser stores a fresher copy of the signed-in user, e.g. after the
// participation list changed on the server.
func (s *Store) ReplaceUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return ErrNotSignedIn
	}
	next := State{User: user, Token: s.state.Token, Guest: s.state.Guest}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// persist must be called with mu held
func (s *Store) persist(ctx context.Context, state State) error {
	raw, err := Encode(state, s.now())
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
