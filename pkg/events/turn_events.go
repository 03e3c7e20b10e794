package events

import "time"

const (
	TypeTurnCompleted    = "TURN_COMPLETED"
	TypeAgentTransferred = "AGENT_TRANSFERRED"
	TypeSessionDeleted   = "SESSION_DELETED"
)

// TurnSummary is what the audit trail keeps about a finished turn.
// Message text is left out on purpose; only sizes are recorded.
type TurnSummary struct {
	SessionID     string
	Agent         string
	NextAgent     string
	Steps         []string
	Citations     int
	RetryCount    int
	Fallback      bool
	Transport     string
	ResponseChars int
	Duration      time.Duration
}

func NewTurnCompleted(s TurnSummary) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id":     s.SessionID,
			"agent":          s.Agent,
			"next_agent":     s.NextAgent,
			"steps":          s.Steps,
			"citations":      s.Citations,
			"retry_count":    s.RetryCount,
			"fallback":       s.Fallback,
			"transport":      s.Transport,
			"response_chars": s.ResponseChars,
			"duration_ms":    s.Duration.Milliseconds(),
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewAgentTransferred(sessionID, from, to string) BaseEvent {
	return BaseEvent{
		Type: TypeAgentTransferred,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"from":       from,
			"to":         to,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewSessionDeleted(sessionID string) BaseEvent {
	return BaseEvent{
		Type:       TypeSessionDeleted,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: time.Now().UTC(),
	}
}
