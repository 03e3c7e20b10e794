package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ChannelPublisher publishes onto a watermill topic. With a gochannel
// pub/sub this keeps events in process when no broker is configured.
type ChannelPublisher struct {
	topic     string
	publisher message.Publisher
}

func NewChannelPublisher(topic string, publisher message.Publisher) *ChannelPublisher {
	return &ChannelPublisher{topic: topic, publisher: publisher}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.EventType())

	return p.publisher.Publish(p.topic, msg)
}
