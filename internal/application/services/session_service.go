package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionService keeps delivery agents logged in for a limited time
type SessionService struct {
	cache providers.CacheProvider
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(cache providers.CacheProvider, ttl time.Duration) *SessionService {
	return &SessionService{cache: cache, ttl: ttl, now: time.Now}
}

// Start creates a session for an agent
func (s *SessionService) Start(ctx context.Context, agentID, agentName string) (*entities.AgentSession, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, apperrors.NewValidationError("agent id is required")
	}

	now := s.now()
	session := &entities.AgentSession{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		AgentName: strings.TrimSpace(agentName),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.ID, data, int(s.ttl.Seconds())); err != nil {
		return nil, apperrors.NewInternalError("failed to store session", err)
	}
	return session, nil
}

// Get returns an active session
func (s *SessionService) Get(ctx context.Context, id string) (*entities.AgentSession, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load session", err)
	}

	var session entities.AgentSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperrors.NewInternalError("failed to decode session", err)
	}
	return &session, nil
}

// End logs the agent out
func (s *SessionService) End(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, sessionKeyPrefix+id); err != nil {
		return apperrors.NewInternalError("failed to delete session", err)
	}
	return nil
}
