package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"symptom-checker-be/internal/constant"
	"symptom-checker-be/internal/dto"
	"symptom-checker-be/internal/entity"
	"symptom-checker-be/internal/mapper"
	"symptom-checker-be/internal/pkg/logger"
	"symptom-checker-be/internal/repository/contract"
	"symptom-checker-be/pkg/events"
	"symptom-checker-be/pkg/interview"
	"symptom-checker-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EventPublisher puts domain events on the bus. Implemented by the NATS
// publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IInterviewService interface {
	Start(ctx context.Context, ownerId string) (*dto.InterviewResponse, error)
	Show(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	SetDemographics(ctx context.Context, ownerId, key string, req *dto.DemographicsRequest) (*dto.InterviewResponse, error)
	SubmitSymptoms(ctx context.Context, ownerId, key string, req *dto.SymptomsRequest) (*dto.InterviewResponse, error)
	RequestStep(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	Answer(ctx context.Context, ownerId, key string, req *dto.AnswerRequest) (*dto.InterviewResponse, error)
	Select(ctx context.Context, ownerId, key string, req *dto.SelectionRequest) (*dto.InterviewResponse, error)
	Confirm(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	Extend(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	Finish(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	Reset(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error)
	Explain(ctx context.Context, ownerId, key string) (*dto.ExplanationResponse, error)
	// Authorize checks that ownerId may follow the session's stream.
	Authorize(ctx context.Context, ownerId, key string) error
}

type interviewService struct {
	controller  *interview.Controller
	sessions    contract.SessionRepository
	assessments contract.AssessmentRepository
	stream      IPublisherService
	events      EventPublisher
	llm         llm.LLMProvider
	mapper      *mapper.InterviewMapper
	logger      logger.ILogger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewInterviewService wires the interview controller to storage and the
// notification paths. eventPublisher and llmProvider may be nil.
func NewInterviewService(
	controller *interview.Controller,
	sessions contract.SessionRepository,
	assessments contract.AssessmentRepository,
	stream IPublisherService,
	eventPublisher EventPublisher,
	llmProvider llm.LLMProvider,
	sysLogger logger.ILogger,
) IInterviewService {
	return &interviewService{
		controller:  controller,
		sessions:    sessions,
		assessments: assessments,
		stream:      stream,
		events:      eventPublisher,
		llm:         llmProvider,
		mapper:      mapper.NewInterviewMapper(),
		logger:      sysLogger,
		tracer:      otel.Tracer("interview-service"),
		now:         time.Now,
	}
}

func (s *interviewService) Start(ctx context.Context, ownerId string) (*dto.InterviewResponse, error) {
	live := &entity.LiveSession{
		Session:   s.controller.Start(),
		OwnerId:   ownerId,
		CreatedAt: s.now(),
	}
	s.sessions.Save(live)

	s.logger.Info("INTERVIEW", "Interview started", map[string]interface{}{
		"session_key":  live.Key(),
		"interview_id": live.Session.InterviewID(),
		"owner_id":     ownerId,
	})
	return s.respond(live), nil
}

func (s *interviewService) Show(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	live, err := s.load(ownerId, key)
	if err != nil {
		return nil, err
	}
	s.present(live.Session)
	if live.Session.State() == interview.StateFinalized {
		s.persist(ctx, live, live.Session.View())
	}
	return s.respond(live), nil
}

func (s *interviewService) SetDemographics(ctx context.Context, ownerId, key string, req *dto.DemographicsRequest) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "SetDemographics", func(ctx context.Context, sess *interview.Session) error {
		return s.controller.SetDemographics(sess, *req.Age, interview.Sex(strings.ToLower(req.Sex)))
	})
}

func (s *interviewService) SubmitSymptoms(ctx context.Context, ownerId, key string, req *dto.SymptomsRequest) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "SubmitSymptoms", func(ctx context.Context, sess *interview.Session) error {
		return s.controller.SubmitSymptoms(ctx, sess, req.Text)
	})
}

func (s *interviewService) RequestStep(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "RequestStep", s.controller.RequestStep)
}

func (s *interviewService) Answer(ctx context.Context, ownerId, key string, req *dto.AnswerRequest) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "Answer", func(ctx context.Context, sess *interview.Session) error {
		return s.controller.Answer(ctx, sess, req.ItemId, interview.ChoiceID(req.ChoiceId))
	})
}

func (s *interviewService) Select(ctx context.Context, ownerId, key string, req *dto.SelectionRequest) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "Select", func(_ context.Context, sess *interview.Session) error {
		return s.controller.Select(sess, req.ItemId, interview.ChoiceID(req.ChoiceId))
	})
}

func (s *interviewService) Confirm(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "Confirm", s.controller.Confirm)
}

func (s *interviewService) Extend(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "Extend", func(_ context.Context, sess *interview.Session) error {
		return s.controller.Extend(sess)
	})
}

func (s *interviewService) Finish(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	return s.run(ctx, ownerId, key, "Finish", func(_ context.Context, sess *interview.Session) error {
		return s.controller.Finish(sess)
	})
}

func (s *interviewService) Reset(ctx context.Context, ownerId, key string) (*dto.InterviewResponse, error) {
	live, err := s.load(ownerId, key)
	if err != nil {
		return nil, err
	}

	live.PersistMu.Lock()
	s.controller.Reset(live.Session)
	live.AssessmentId = ""
	live.PersistMu.Unlock()
	s.sessions.Save(live)

	s.logger.Info("INTERVIEW", "Interview reset", map[string]interface{}{
		"session_key":  key,
		"interview_id": live.Session.InterviewID(),
	})
	return s.respond(live), nil
}

func (s *interviewService) Explain(ctx context.Context, ownerId, key string) (*dto.ExplanationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview.Explain", trace.WithAttributes(attribute.String("session.key", key)))
	defer span.End()

	live, err := s.load(ownerId, key)
	if err != nil {
		return nil, err
	}
	v := live.Session.View()
	if v.State != interview.StateFinalized {
		return nil, &interview.StateError{State: v.State, Action: "explain the result", Reason: "the interview is not finished"}
	}

	id := s.persist(ctx, live, v)
	if id == "" {
		return nil, errors.New("assessment could not be stored")
	}
	assessmentId, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	assessment, err := s.assessments.FindByID(ctx, assessmentId)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, fmt.Errorf("assessment %s: %w", id, constant.ErrNotFound)
	}
	if assessment.Explanation != "" {
		return &dto.ExplanationResponse{AssessmentId: id, Explanation: assessment.Explanation}, nil
	}

	if s.llm == nil {
		return nil, &interview.GatewayError{Op: "explanation", Err: errors.New("no text generation provider configured")}
	}
	text, err := s.llm.Generate(ctx, BuildExplanationPrompt(assessment), llm.WithTemperature(0.3), llm.WithMaxTokens(800))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "explanation failed")
		s.logger.Error("INTERVIEW", "Explanation generation failed", map[string]interface{}{"session_key": key, "error": err})
		return nil, &interview.GatewayError{Op: "explanation", Err: err}
	}

	now := s.now()
	assessment.Explanation = strings.TrimSpace(text)
	assessment.UpdatedAt = &now
	if err := s.assessments.Save(ctx, assessment); err != nil {
		// still worth returning the text we already paid for
		s.logger.Warn("INTERVIEW", "Failed to store explanation", map[string]interface{}{"assessment_id": id, "error": err})
	}
	return &dto.ExplanationResponse{AssessmentId: id, Explanation: assessment.Explanation}, nil
}

func (s *interviewService) Authorize(ctx context.Context, ownerId, key string) error {
	_, err := s.load(ownerId, key)
	return err
}

// BuildExplanationPrompt renders the ranked conditions of a finalized
// interview into the explanation prompt.
func BuildExplanationPrompt(a *entity.Assessment) string {
	var conditions strings.Builder
	for i, c := range interview.Leading(a.Conditions, 5) {
		fmt.Fprintf(&conditions, "%d. %s (%.0f%%)", i+1, c.DisplayName(), c.Probability*100)
		if c.Details != nil && c.Details.Description != "" {
			fmt.Fprintf(&conditions, " - %s", c.Details.Description)
		}
		conditions.WriteString("\n")
	}
	if conditions.Len() == 0 {
		conditions.WriteString("(none)\n")
	}

	emergencies := ""
	if a.HasEmergency() {
		emergencies = fmt.Sprintf(constant.ExplanationEmergencyLineV1, strings.Join(a.Emergencies, ", "))
	}
	return fmt.Sprintf(constant.ExplanationPromptV1, a.Age, a.Sex, conditions.String(), emergencies)
}

// run applies one controller operation and the follow-up work that depends
// on its outcome.
func (s *interviewService) run(ctx context.Context, ownerId, key, op string, fn func(context.Context, *interview.Session) error) (*dto.InterviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview."+op, trace.WithAttributes(attribute.String("session.key", key)))
	defer span.End()

	live, err := s.load(ownerId, key)
	if err != nil {
		return nil, err
	}
	before := live.Session.View()

	err = fn(ctx, live.Session)
	s.sessions.Save(live)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		s.logFailure(op, key, err)
		return nil, err
	}

	after := live.Session.View()
	span.SetAttributes(
		attribute.String("interview.state", string(after.State)),
		attribute.Int("interview.question_count", after.QuestionCount),
	)
	if before.State != after.State {
		s.logger.Debug("INTERVIEW", "State changed", map[string]interface{}{
			"session_key": key,
			"from":        before.State,
			"to":          after.State,
		})
	}

	if fresh := newEmergencies(before, after); len(fresh) > 0 {
		s.announceEmergencies(ctx, live, after, fresh)
	}
	if after.State == interview.StateFinalized {
		s.persist(ctx, live, after)
	}
	s.present(live.Session)
	return s.respond(live), nil
}

func (s *interviewService) load(ownerId, key string) (*entity.LiveSession, error) {
	live, ok := s.sessions.Get(key)
	if !ok || !live.OwnedBy(ownerId) {
		return nil, fmt.Errorf("interview %s: %w", key, constant.ErrNotFound)
	}
	return live, nil
}

func (s *interviewService) respond(live *entity.LiveSession) *dto.InterviewResponse {
	live.PersistMu.Lock()
	assessmentId := live.AssessmentId
	live.PersistMu.Unlock()
	return s.mapper.ToResponse(live.Session.View(), assessmentId)
}

// present moves a freshly received question to AwaitingAnswer since the
// response is what shows it to the user.
func (s *interviewService) present(sess *interview.Session) {
	if sess.State() == interview.StatePresentingQuestion {
		_, _ = s.controller.Present(sess)
	}
}

// persist stores a finalized interview once and returns the assessment id,
// or "" when storing failed. A later call retries.
func (s *interviewService) persist(ctx context.Context, live *entity.LiveSession, v interview.View) string {
	live.PersistMu.Lock()
	defer live.PersistMu.Unlock()

	if live.AssessmentId != "" {
		return live.AssessmentId
	}
	if live.Session.InterviewID() != v.InterviewID {
		// reset since v was taken
		return ""
	}

	assessment := &entity.Assessment{
		Id:            uuid.New(),
		SessionKey:    v.Key,
		InterviewId:   v.InterviewID,
		OwnerId:       live.OwnerId,
		Age:           v.Patient.Age,
		Sex:           string(v.Patient.Sex),
		Evidence:      v.Evidence,
		Conditions:    v.Conditions,
		Emergencies:   v.Emergencies,
		StopReason:    string(v.Reason),
		QuestionCount: v.QuestionCount,
		CreatedAt:     s.now(),
	}
	if err := s.assessments.Save(ctx, assessment); err != nil {
		s.logger.Error("INTERVIEW", "Failed to store assessment", map[string]interface{}{
			"session_key":  v.Key,
			"interview_id": v.InterviewID,
			"error":        err,
		})
		return ""
	}
	live.AssessmentId = assessment.Id.String()

	s.logger.Info("INTERVIEW", "Interview finalized", map[string]interface{}{
		"session_key":    v.Key,
		"interview_id":   v.InterviewID,
		"assessment_id":  live.AssessmentId,
		"reason":         v.Reason,
		"question_count": v.QuestionCount,
	})

	leading := interview.Leading(v.Conditions, interview.LeadingCount)
	summaries := make([]events.ConditionSummary, 0, len(leading))
	for _, c := range leading {
		summaries = append(summaries, events.ConditionSummary{ID: c.ID, Name: c.DisplayName(), Probability: c.Probability})
	}

	s.publishEvent(ctx, events.InterviewFinalized{
		SessionKey:    v.Key,
		InterviewID:   v.InterviewID,
		AssessmentID:  live.AssessmentId,
		OwnerID:       live.OwnerId,
		Reason:        string(v.Reason),
		QuestionCount: v.QuestionCount,
		Leading:       summaries,
		Emergencies:   v.Emergencies,
		OccurredAt:    assessment.CreatedAt,
	})
	s.publishStream(ctx, v.Key, constant.StreamTypeFinalized, map[string]interface{}{
		"assessment_id": live.AssessmentId,
		"reason":        v.Reason,
		"conditions":    summaries,
	})
	return live.AssessmentId
}

func (s *interviewService) announceEmergencies(ctx context.Context, live *entity.LiveSession, v interview.View, fresh []string) {
	s.logger.Warn("INTERVIEW", "Emergency detected", map[string]interface{}{
		"session_key": v.Key,
		"conditions":  fresh,
	})
	s.publishEvent(ctx, events.EmergencyDetected{
		SessionKey:  v.Key,
		InterviewID: v.InterviewID,
		OwnerID:     live.OwnerId,
		Conditions:  fresh,
		OccurredAt:  s.now(),
	})
	s.publishStream(ctx, v.Key, constant.StreamTypeEmergency, map[string]interface{}{"conditions": fresh})
}

func (s *interviewService) publishEvent(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("INTERVIEW", "Failed to publish event", map[string]interface{}{"type": event.EventType(), "error": err})
	}
}

func (s *interviewService) publishStream(ctx context.Context, key, msgType string, data any) {
	if err := s.stream.PublishStream(ctx, key, msgType, data); err != nil {
		s.logger.Warn("INTERVIEW", "Failed to publish stream message", map[string]interface{}{"type": msgType, "error": err})
	}
}

func (s *interviewService) logFailure(op, key string, err error) {
	details := map[string]interface{}{"op": op, "session_key": key, "error": err}
	switch {
	case interview.IsValidation(err):
		s.logger.Debug("INTERVIEW", "Input rejected", details)
	case interview.IsGateway(err):
		s.logger.Error("INTERVIEW", "Remote call failed", details)
	default:
		s.logger.Warn("INTERVIEW", "Operation refused", details)
	}
}

func newEmergencies(before, after interview.View) []string {
	if after.InterviewID != before.InterviewID {
		return after.Emergencies
	}
	known := make(map[string]bool, len(before.Emergencies))
	for _, e := range before.Emergencies {
		known[e] = true
	}
	var out []string
	for _, e := range after.Emergencies {
		if !known[e] {
			out = append(out, e)
		}
	}
	return out
}
