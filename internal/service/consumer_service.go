package service

import (
	"context"
	"encoding/json"

	"symptom-checker-be/internal/dto"
	"symptom-checker-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

// StreamDelivery pushes a frame to everyone following a session. It is
// implemented by the websocket hub.
type StreamDelivery interface {
	Publish(ctx context.Context, sessionKey, msgType string, data any) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   StreamDelivery
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery StreamDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     log,
	}
}

// Consume subscribes and forwards messages in the background until ctx ends.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks: a stream frame that cannot be delivered now is
// stale by the time it could be retried.
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var payload dto.StreamMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("STREAM", "Failed to unmarshal stream message", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := cs.delivery.Publish(msg.Context(), payload.SessionKey, payload.Type, payload.Data); err != nil {
		cs.logger.Warn("STREAM", "Failed to deliver stream message", map[string]interface{}{
			"session_key": payload.SessionKey,
			"type":        payload.Type,
			"error":       err.Error(),
		})
	}
}
