package memory

import (
	"context"
	"sync"
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process memory. Sessions expire after
// the configured idle TTL; every write refreshes it.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository purges expired sessions every 10 minutes.
// A ttl of zero keeps sessions until deleted.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Create(_ context.Context) (*entity.ChatSession, error) {
	session := &entity.ChatSession{
		Id:          uuid.New(),
		ActiveAgent: agent.General,
		CreatedAt:   time.Now(),
		Messages:    []entity.ChatMessage{},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
	return session.Clone(), nil
}

func (r *SessionRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.get(id)
	if !found {
		return nil, nil
	}
	return session.Clone(), nil
}

func (r *SessionRepository) AppendMessage(_ context.Context, id uuid.UUID, message *entity.ChatMessage) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.get(id)
	if !found {
		return false, nil
	}

	now := time.Now()
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	message.ChatSessionId = id

	session.Messages = append(session.Messages, message.Clone())
	session.UpdatedAt = &now
	r.cache.Set(id.String(), session, cache.DefaultExpiration)
	return true, nil
}

func (r *SessionRepository) SetActiveAgent(_ context.Context, id uuid.UUID, kind agent.Kind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.get(id)
	if !found {
		return false, nil
	}

	now := time.Now()
	session.ActiveAgent = kind
	session.UpdatedAt = &now
	r.cache.Set(id.String(), session, cache.DefaultExpiration)
	return true, nil
}

func (r *SessionRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.get(id); !found {
		return false, nil
	}
	r.cache.Delete(id.String())
	return true, nil
}

// get must be called with mu held.
func (r *SessionRepository) get(id uuid.UUID) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.ChatSession), true
	}
	return nil, false
}
