package service

import (
	"context"

	"symptom-checker-be/internal/constant"
	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/pkg/interview"
)

// streamNotifier puts leading-condition updates on the stream topic. It runs
// under the session lock, so it only hands the message off.
type streamNotifier struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewStreamNotifier(publisher IPublisherService, log logger.ILogger) interview.Notifier {
	return &streamNotifier{publisher: publisher, logger: log}
}

func (n *streamNotifier) LeadingConditions(ctx context.Context, update interview.LeadingConditions) {
	err := n.publisher.PublishStream(ctx, update.SessionKey, constant.StreamTypeLeadingConditions, update)
	if err != nil {
		n.logger.Warn("STREAM", "Failed to publish leading conditions", map[string]interface{}{
			"session_key": update.SessionKey,
			"error":       err.Error(),
		})
	}
}
