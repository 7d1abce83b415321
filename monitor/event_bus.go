package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type ItemOutcome string

const (
	OutcomeCreated ItemOutcome = "created"
	OutcomeUpdated ItemOutcome = "updated"
	OutcomeFailed  ItemOutcome = "failed"
)

// ItemEvent is published once for every post a batch processes.
type ItemEvent struct {
	BatchId    string      `json:"batch_id"`
	Kind       string      `json:"kind"`
	Target     string      `json:"target"`
	ExternalId string      `json:"external_id"`
	Outcome    ItemOutcome `json:"outcome"`
	Warnings   int         `json:"warnings"`
	At         time.Time   `json:"at"`
}

// EventPublisher is what the batch runner publishes item events to.
type EventPublisher interface {
	PublishItemEvent(ctx context.Context, event ItemEvent) error
}

// EventBus is an in process pub/sub for import events. For now it is a
// golang channel, it could be replaced by a broker backed watermill pubsub.
type EventBus struct {
	*gochannel.GoChannel
}

func NewEventBus() *EventBus {
	return &EventBus{GoChannel: gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)}
}

func (b *EventBus) PublishItemEvent(ctx context.Context, event ItemEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return b.Publish(TOPIC_IMPORTED_ITEM, msg)
}

// SubscribeItemEvents returns decoded item events until ctx is done.
// Malformed messages are dropped.
func (b *EventBus) SubscribeItemEvents(ctx context.Context) (<-chan ItemEvent, error) {
	messages, err := b.Subscribe(ctx, TOPIC_IMPORTED_ITEM)
	if err != nil {
		return nil, err
	}
	events := make(chan ItemEvent)
	go func() {
		defer close(events)
		for msg := range messages {
			msg.Ack()
			var event ItemEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
