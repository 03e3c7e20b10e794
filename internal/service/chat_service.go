package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/metrics"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/pkg/events"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/rag/workflow"
	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
)

const chatModule = "CHAT"

// Transports, used as metric and event labels.
const (
	TransportHTTP      = "http"
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSystemNotReady     = errors.New("server not ready: retriever or workflow not initialized")
	ErrClientDisconnected = errors.New("client disconnected")
)

// Readiness is implemented by retrievers that build their index lazily.
type Readiness interface {
	Ready() bool
}

// TurnRunner is the workflow executor as seen by the chat service.
type TurnRunner interface {
	Run(ctx context.Context, in workflow.Input) (workflow.Result, error)
	RunStream(ctx context.Context, in workflow.Input, emit workflow.Emitter) (workflow.Result, error)
}

// TurnRecorder receives per-turn metrics.
type TurnRecorder interface {
	TurnStarted() func()
	ObserveTurn(agent, transport, outcome string, duration time.Duration)
	IncTransfer(target string)
}

type IChatService interface {
	SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	// StreamChat hands answer text to sink while the turn runs. When sink
	// fails the turn stops and ErrClientDisconnected is returned.
	StreamChat(ctx context.Context, request *dto.ChatRequest, transport string, sink workflow.Emitter) (*dto.ChatResponse, error)
	Health() dto.HealthResponse
}

type chatService struct {
	sessionRepo contract.SessionRepository
	runner      TurnRunner
	retriever   Readiness
	publisher   events.Publisher
	recorder    TurnRecorder
	logger      logger.ILogger
	locks       *sessionLocks
}

func NewChatService(
	sessionRepo contract.SessionRepository,
	runner TurnRunner,
	retriever Readiness,
	publisher events.Publisher,
	recorder TurnRecorder,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessionRepo: sessionRepo,
		runner:      runner,
		retriever:   retriever,
		publisher:   publisher,
		recorder:    recorder,
		logger:      log,
		locks:       newSessionLocks(),
	}
}

func (cs *chatService) Health() dto.HealthResponse {
	ragReady := cs.retriever != nil && cs.retriever.Ready()
	graphReady := cs.runner != nil

	status := "healthy"
	if !ragReady || !graphReady {
		status = "unhealthy"
	}
	return dto.HealthResponse{
		Status:           status,
		RagInitialized:   ragReady,
		GraphInitialized: graphReady,
	}
}

func (cs *chatService) SendChat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	return cs.runTurn(ctx, request, TransportHTTP, nil)
}

func (cs *chatService) StreamChat(ctx context.Context, request *dto.ChatRequest, transport string, sink workflow.Emitter) (*dto.ChatResponse, error) {
	if sink == nil {
		return nil, errors.New("stream chat: nil sink")
	}
	return cs.runTurn(ctx, request, transport, newAccumulator(sink))
}

func (cs *chatService) runTurn(ctx context.Context, request *dto.ChatRequest, transport string, acc *accumulator) (*dto.ChatResponse, error) {
	if cs.Health().Status != "healthy" {
		return nil, ErrSystemNotReady
	}

	session, err := cs.findSession(ctx, request.SessionId)
	if err != nil {
		return nil, err
	}

	release, err := cs.locks.acquire(ctx, session.Id)
	if err != nil {
		return nil, fmt.Errorf("wait for session turn: %w", err)
	}
	defer release()

	// Another turn may have moved the conversation to a specialist while
	// this one was waiting.
	session, err = cs.findSession(ctx, request.SessionId)
	if err != nil {
		return nil, err
	}

	active := session.ActiveAgent
	if claimed, ok := agent.Parse(request.Agent); ok && request.Agent != "" && claimed != active {
		cs.logger.Warn(chatModule, "Client agent differs from session, using session value", map[string]interface{}{
			"session_id": session.Id.String(),
			"client":     request.Agent,
			"session":    string(active),
		})
	}

	if err := cs.appendMessage(ctx, session.Id, &entity.ChatMessage{
		Sender: entity.SenderUser,
		Text:   request.Message,
	}); err != nil {
		return nil, err
	}

	done := cs.recorder.TurnStarted()
	defer done()
	start := time.Now()

	in := workflow.Input{Message: request.Message, ActiveAgent: active}
	var result workflow.Result
	if acc == nil {
		result, err = cs.runner.Run(ctx, in)
	} else {
		result, err = cs.runner.RunStream(ctx, in, acc)
	}

	if err != nil {
		if acc != nil && (errors.Is(err, ErrClientDisconnected) || ctx.Err() != nil) {
			cs.savePartial(ctx, session.Id, active, acc, result)
			cs.recorder.ObserveTurn(string(active), transport, metrics.OutcomeDisconnected, time.Since(start))
			return nil, fmt.Errorf("%w: %w", ErrClientDisconnected, err)
		}

		cs.logger.Error(chatModule, "Turn failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"agent":      string(active),
			"steps":      strings.Join(result.ExecutedSteps, " → "),
			"error":      err.Error(),
		})
		cs.recorder.ObserveTurn(string(active), transport, metrics.OutcomeFailed, time.Since(start))
		return nil, err
	}

	if err := cs.appendMessage(ctx, session.Id, &entity.ChatMessage{
		Sender:        entity.SenderAgent,
		Text:          result.Answer,
		Agent:         result.ActiveAgent,
		Citations:     result.Citations,
		ExecutedSteps: result.ExecutedSteps,
	}); err != nil {
		return nil, err
	}

	if result.ActiveAgent != active {
		if _, err := cs.sessionRepo.SetActiveAgent(ctx, session.Id, result.ActiveAgent); err != nil {
			return nil, fmt.Errorf("set active agent: %w", err)
		}
		cs.recorder.IncTransfer(string(result.ActiveAgent))
		cs.publish(ctx, events.NewAgentTransferred(session.Id.String(), string(active), string(result.ActiveAgent)))
	}

	duration := time.Since(start)
	cs.publish(ctx, events.NewTurnCompleted(events.TurnSummary{
		SessionID:     session.Id.String(),
		Agent:         string(active),
		NextAgent:     string(result.ActiveAgent),
		Steps:         result.ExecutedSteps,
		Citations:     len(result.Citations),
		RetryCount:    result.RetryCount,
		Fallback:      result.UsedFallback,
		Transport:     transport,
		ResponseChars: len([]rune(result.Answer)),
		Duration:      duration,
	}))
	cs.recorder.ObserveTurn(string(active), transport, metrics.OutcomeCompleted, duration)

	return &dto.ChatResponse{
		SessionId:          session.Id,
		Message:            result.Answer,
		Agent:              string(result.ActiveAgent),
		Sources:            toSourceDTOs(result.Citations),
		NeedsClarification: result.NeedsClarification,
		WorkflowPath:       nonNil(result.ExecutedSteps),
	}, nil
}

func (cs *chatService) findSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	session, err := cs.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (cs *chatService) appendMessage(ctx context.Context, id uuid.UUID, message *entity.ChatMessage) error {
	ok, err := cs.sessionRepo.AppendMessage(ctx, id, message)
	if err != nil {
		return fmt.Errorf("append %s message: %w", message.Sender, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// savePartial keeps whatever the client already saw. The request context
// is usually cancelled by now, so the write gets its own.
func (cs *chatService) savePartial(ctx context.Context, id uuid.UUID, active agent.Kind, acc *accumulator, result workflow.Result) {
	text := acc.text()
	cs.logger.Warn(chatModule, "Client disconnected mid-turn, saving partial answer", map[string]interface{}{
		"session_id": id.String(),
		"agent":      string(active),
		"chars":      len([]rune(text)),
		"steps":      strings.Join(result.ExecutedSteps, " → "),
	})
	if text == "" {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := cs.appendMessage(persistCtx, id, &entity.ChatMessage{
		Sender:        entity.SenderAgent,
		Text:          text,
		Agent:         active,
		ExecutedSteps: result.ExecutedSteps,
	}); err != nil {
		cs.logger.Error(chatModule, "Failed to save partial answer", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (cs *chatService) publish(ctx context.Context, event events.Event) {
	if cs.publisher == nil {
		return
	}
	if err := cs.publisher.Publish(ctx, event); err != nil {
		cs.logger.Warn(chatModule, "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func toSourceDTOs(citations []store.Citation) []dto.SourceDTO {
	sources := make([]dto.SourceDTO, 0, len(citations))
	for _, c := range citations {
		sources = append(sources, dto.SourceDTO{
			Source:  c.SourceDocument,
			Page:    c.PageNumber,
			Rank:    c.Rank,
			Preview: c.Preview,
		})
	}
	return sources
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
