package service

import (
	"context"

	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/pkg/events"
	pktNats "symptom-checker-be/pkg/nats"
)

// EventSubscriber is implemented by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// AuditService writes every interview event to the audit log so finalized
// interviews and emergencies can be traced across instances.
type AuditService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewAuditService(sub EventSubscriber, auditLogger logger.ILogger) *AuditService {
	return &AuditService{subscriber: sub, logger: auditLogger}
}

// Start begins listening to the event bus.
func (s *AuditService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+"interview.>", "interview-audit", s.handleEvent); err != nil {
		s.logger.Error("AUDIT", "Failed to start audit subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info("AUDIT", "Audit service listening", map[string]interface{}{"subject": pktNats.SubjectPrefix + "interview.>"})
	return nil
}

func (s *AuditService) handleEvent(_ context.Context, event events.Event) error {
	details := event.Payload()
	details["occurred_at"] = event.Timestamp()

	switch event.EventType() {
	case events.TypeEmergencyDetected:
		s.logger.Warn("AUDIT", "Emergency flagged during interview", details)
	case events.TypeInterviewFinalized:
		s.logger.Info("AUDIT", "Interview finalized", details)
	default:
		s.logger.Debug("AUDIT", "Unhandled interview event", map[string]interface{}{"type": event.EventType()})
	}
	return nil
}
