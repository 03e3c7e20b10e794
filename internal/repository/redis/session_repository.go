package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "policydesk:session:"
	maxWatchRetries = 3
)

// SessionRepository stores each session as a hash plus a list of JSON
// encoded messages. Both keys share the idle TTL.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

type messageRecord struct {
	Id            uuid.UUID        `json:"id"`
	Sender        string           `json:"sender"`
	Text          string           `json:"text"`
	Agent         string           `json:"agent,omitempty"`
	Citations     []store.Citation `json:"citations,omitempty"`
	ExecutedSteps []string         `json:"executed_steps,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func sessionKey(id uuid.UUID) string  { return keyPrefix + id.String() }
func messagesKey(id uuid.UUID) string { return keyPrefix + id.String() + ":messages" }

func (r *SessionRepository) Create(ctx context.Context) (*entity.ChatSession, error) {
	session := &entity.ChatSession{
		Id:          uuid.New(),
		ActiveAgent: agent.General,
		CreatedAt:   time.Now().UTC(),
		Messages:    []entity.ChatMessage{},
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.Id),
			"active_agent", string(session.ActiveAgent),
			"created_at", session.CreatedAt.Format(time.RFC3339Nano),
		)
		r.touch(ctx, pipe, session.Id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis create session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	fields, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	raw, err := r.rdb.LRange(ctx, messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read messages: %w", err)
	}

	session := &entity.ChatSession{
		Id:          id,
		ActiveAgent: agent.Kind(fields["active_agent"]),
		Messages:    make([]entity.ChatMessage, 0, len(raw)),
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		session.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		session.UpdatedAt = &t
	}

	for _, item := range raw {
		var rec messageRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("redis decode message: %w", err)
		}
		session.Messages = append(session.Messages, recordToMessage(id, rec))
	}
	return session, nil
}

func (r *SessionRepository) AppendMessage(ctx context.Context, id uuid.UUID, message *entity.ChatMessage) (bool, error) {
	now := time.Now().UTC()
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	message.ChatSessionId = id

	payload, err := json.Marshal(messageToRecord(message))
	if err != nil {
		return false, fmt.Errorf("redis encode message: %w", err)
	}

	ok, err := r.updateExisting(ctx, id, func(pipe goredis.Pipeliner) {
		pipe.RPush(ctx, messagesKey(id), payload)
		pipe.HSet(ctx, sessionKey(id), "updated_at", now.Format(time.RFC3339Nano))
	})
	if err != nil {
		return false, fmt.Errorf("redis append message: %w", err)
	}
	return ok, nil
}

func (r *SessionRepository) SetActiveAgent(ctx context.Context, id uuid.UUID, kind agent.Kind) (bool, error) {
	ok, err := r.updateExisting(ctx, id, func(pipe goredis.Pipeliner) {
		pipe.HSet(ctx, sessionKey(id),
			"active_agent", string(kind),
			"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
		)
	})
	if err != nil {
		return false, fmt.Errorf("redis set agent: %w", err)
	}
	return ok, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.rdb.Del(ctx, sessionKey(id), messagesKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete session: %w", err)
	}
	return n > 0, nil
}

// updateExisting runs write in a MULTI block guarded by WATCH on the session
// hash, so a delete or expiry racing the write aborts it instead of
// recreating the keys.
func (r *SessionRepository) updateExisting(ctx context.Context, id uuid.UUID, write func(goredis.Pipeliner)) (bool, error) {
	key := sessionKey(id)
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		found := false
		err := r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				write(pipe)
				r.touch(ctx, pipe, id)
				return nil
			})
			if err == nil {
				found = true
			}
			return err
		}, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return found, err
	}
	return false, goredis.TxFailedErr
}

func (r *SessionRepository) touch(ctx context.Context, pipe goredis.Pipeliner, id uuid.UUID) {
	if r.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, sessionKey(id), r.ttl)
	pipe.Expire(ctx, messagesKey(id), r.ttl)
}

func messageToRecord(m *entity.ChatMessage) messageRecord {
	return messageRecord{
		Id:            m.Id,
		Sender:        string(m.Sender),
		Text:          m.Text,
		Agent:         string(m.Agent),
		Citations:     m.Citations,
		ExecutedSteps: m.ExecutedSteps,
		CreatedAt:     m.CreatedAt,
	}
}

func recordToMessage(sessionID uuid.UUID, rec messageRecord) entity.ChatMessage {
	citations := rec.Citations
	if citations == nil {
		citations = []store.Citation{}
	}
	steps := rec.ExecutedSteps
	if steps == nil {
		steps = []string{}
	}
	return entity.ChatMessage{
		Id:            rec.Id,
		ChatSessionId: sessionID,
		Sender:        entity.Sender(rec.Sender),
		Text:          rec.Text,
		Agent:         agent.Kind(rec.Agent),
		Citations:     citations,
		ExecutedSteps: steps,
		CreatedAt:     rec.CreatedAt,
	}
}
