package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/config"
	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// ErrInvalidCredentials is returned on a login with non-matching credentials
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service owns the process-wide session state with an explicit lifecycle:
// Load restores a persisted session, Login/Logout mutate it. Callers
// receive the service by injection; there is no ambient global.
type Service struct {
	kv    storage.KV
	log   zerolog.Logger
	users []config.UserEntry

	mu   sync.RWMutex
	user *types.User
}

// NewService creates a session service over the configured accounts
func NewService(kv storage.KV, users []config.UserEntry, log zerolog.Logger) *Service {
	return &Service{
		kv:    kv,
		log:   log.With().Str("component", "auth").Logger(),
		users: users,
	}
}

// Load restores the persisted session, if any. Persistence failures are
// logged and leave the service logged out.
func (s *Service) Load(ctx context.Context) {
	data, err := s.kv.Get(ctx, storage.KeyAuthSession)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load session")
		return
	}

	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.log.Error().Err(err).Msg("failed to decode session")
		return
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.log.Info().Str("email", user.Email).Msg("session restored")
}

// Login authenticates against the configured accounts and persists the
// session. Email comparison is case-insensitive.
func (s *Service) Login(ctx context.Context, email, password string) (types.User, error) {
	var match *config.UserEntry
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			match = &s.users[i]
			break
		}
	}
	if match == nil || match.Password != password {
		return types.User{}, ErrInvalidCredentials
	}

	user := types.User{
		ID:    uuid.NewString(),
		Email: match.Email,
		Name:  match.Name,
		Role:  match.Role,
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	if data, err := json.Marshal(user); err == nil {
		if err := s.kv.Set(ctx, storage.KeyAuthSession, data); err != nil {
			s.log.Error().Err(err).Msg("failed to persist session")
		}
	}

	s.log.Info().Str("email", user.Email).Str("role", user.Role).Msg("login")
	return user, nil
}

// Logout clears the session state and the persisted session
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.kv.Remove(ctx, storage.KeyAuthSession); err != nil {
		s.log.Error().Err(err).Msg("failed to clear persisted session")
	}
	s.log.Info().Msg("logout")
}

// Current returns the logged-in user, if any
func (s *Service) Current() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}
