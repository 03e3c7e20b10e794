package service

import (
	"context"
	"fmt"

	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const auditModule = "AUDIT"

// IConsumerService writes the turn audit trail from published events.
type IConsumerService interface {
	// Consume reads events from the in-process topic until ctx ends.
	Consume(ctx context.Context) error
	// Handle records one event. It is also the NATS subscriber handler.
	Handle(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	audit      logger.ILogger
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	audit logger.ILogger,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		audit:      audit,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", cs.topicName, err)
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error(auditModule, "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.Handle(ctx, event); err != nil {
		msg.Nack()
		return
	}
	msg.Ack()
}

func (cs *consumerService) Handle(_ context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()

	switch event.EventType() {
	case events.TypeTurnCompleted:
		cs.audit.Info(auditModule, "Turn completed", details)
	case events.TypeAgentTransferred:
		cs.audit.Info(auditModule, "Agent transferred", details)
	case events.TypeSessionDeleted:
		cs.audit.Info(auditModule, "Session deleted", details)
	default:
		cs.audit.Warn(auditModule, "Unknown event type "+event.EventType(), details)
	}
	return nil
}
