package service

import (
	"context"
	"encoding/json"

	"symptom-checker-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	// PublishStream wraps data in a StreamMessage for sessionKey.
	PublishStream(ctx context.Context, sessionKey, msgType string, data any) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}

func (ps *publisherService) PublishStream(ctx context.Context, sessionKey, msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(dto.StreamMessage{SessionKey: sessionKey, Type: msgType, Data: raw})
	if err != nil {
		return err
	}
	return ps.Publish(ctx, payload)
}
