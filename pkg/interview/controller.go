package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinSymptomTextLength = 10
	MaxAge               = 120
	// MinRelevance is the parser score at or below which a mention is dropped.
	MinRelevance = 0.4
	// LeadingCount is how many conditions the leading-conditions notification carries.
	LeadingCount = 3
)

type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// WithExtras sets the extras block sent on every diagnosis call.
func WithExtras(extras map[string]any) Option {
	return func(c *Controller) { c.extras = extras }
}

// Controller drives sessions through the interview. It keeps no per-session
// state of its own and may be shared between goroutines.
//
// A session lock is never held across a remote call. Each call is tagged
// with the interview id active at send time and its response is dropped if
// the session has been reset in the meantime.
type Controller struct {
	gateway  DiagnosisGateway
	parser   SymptomParser
	notifier Notifier
	policy   *StopPolicy
	newID    func() string
	now      func() time.Time
	extras   map[string]any
}

func NewController(gateway DiagnosisGateway, parser SymptomParser, policy *StopPolicy, opts ...Option) *Controller {
	c := &Controller{
		gateway: gateway,
		parser:  parser,
		policy:  policy,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Policy() *StopPolicy { return c.policy }

// Start opens a new session waiting for demographics.
func (c *Controller) Start() *Session {
	now := c.now()
	return &Session{
		key:          c.newID(),
		interviewID:  c.newID(),
		state:        StateCollectingDemographics,
		evidence:     NewEvidenceStore(),
		maxQuestions: c.policy.Config().MaxQuestions,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (c *Controller) SetDemographics(s *Session, age int, sex Sex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCollectingDemographics {
		return &StateError{State: s.state, Action: "set demographics"}
	}
	if age <= 0 || age > MaxAge {
		return &ValidationError{Field: "age", Message: fmt.Sprintf("age must be between 1 and %d", MaxAge)}
	}
	if !sex.Valid() {
		return &ValidationError{Field: "sex", Message: fmt.Sprintf("unsupported sex %q", sex)}
	}

	s.patient = Patient{Age: age, Sex: sex}
	c.transition(s, StateCollectingSymptoms)
	return nil
}

// SubmitSymptoms parses the free-text complaint and, when at least one
// relevant mention comes back, runs the first diagnosis round-trip.
func (c *Controller) SubmitSymptoms(ctx context.Context, s *Session, text string) error {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state != StateCollectingSymptoms {
		state := s.state
		s.mu.Unlock()
		return &StateError{State: state, Action: "submit symptoms"}
	}
	if s.inFlight {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "submit symptoms", Reason: "a request is already in flight"}
	}
	if utf8.RuneCountInString(text) < MinSymptomTextLength {
		s.mu.Unlock()
		return &ValidationError{Field: "symptoms", Message: fmt.Sprintf("please describe your symptoms in at least %d characters", MinSymptomTextLength)}
	}
	req := ParseRequest{InterviewID: s.interviewID, Text: text, Patient: s.patient}
	s.inFlight = true
	s.mu.Unlock()

	mentions, err := c.parser.Parse(ctx, req)

	s.mu.Lock()
	if s.interviewID != req.InterviewID {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	s.inFlight = false
	if err != nil {
		s.mu.Unlock()
		return asGatewayError("parse", err)
	}

	relevant := filterMentions(mentions)
	if len(relevant) == 0 {
		s.mu.Unlock()
		return &ValidationError{Field: "symptoms", Message: "no symptoms recognised, please describe them in more detail"}
	}
	if err := s.evidence.Merge(relevant); err != nil {
		s.mu.Unlock()
		return asGatewayError("parse", err)
	}
	c.transition(s, StateAwaitingStep)
	step := c.beginStep(s)
	s.mu.Unlock()

	return c.completeStep(ctx, s, step)
}

// RequestStep runs a diagnosis round-trip for a session waiting on one.
// It is also the retry path after a failed call.
func (c *Controller) RequestStep(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.state != StateAwaitingStep {
		state := s.state
		s.mu.Unlock()
		return &StateError{State: state, Action: "request a diagnosis step"}
	}
	if s.inFlight {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "request a diagnosis step", Reason: "a request is already in flight"}
	}
	step := c.beginStep(s)
	s.mu.Unlock()

	return c.completeStep(ctx, s, step)
}

// Present marks the pending question as shown and returns it.
func (c *Controller) Present(s *Session) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.answerable() || s.question == nil {
		return nil, &StateError{State: s.state, Action: "present a question", Reason: "no question is pending"}
	}
	if s.state == StatePresentingQuestion {
		c.transition(s, StateAwaitingAnswer)
	}
	return s.question, nil
}

// Answer records the choice for a single or grouped-single question and
// runs the next round-trip.
func (c *Controller) Answer(ctx context.Context, s *Session, itemID string, choice ChoiceID) error {
	s.mu.Lock()
	if err := c.checkAnswerable(s, "answer"); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.question.(GroupedMultipleQuestion); ok {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "answer", Reason: "grouped question needs every item selected and confirmed"}
	}
	if err := validateChoice(s.question, itemID, choice); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.evidence.Upsert(EvidenceItem{ID: itemID, ChoiceID: choice}); err != nil {
		s.mu.Unlock()
		return err
	}
	c.transition(s, StateAwaitingStep)
	step := c.beginStep(s)
	s.mu.Unlock()

	return c.completeStep(ctx, s, step)
}

// Select stores one item's choice for a grouped-multiple question without
// touching the evidence store.
func (c *Controller) Select(s *Session, itemID string, choice ChoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := c.checkAnswerable(s, "select"); err != nil {
		return err
	}
	if _, ok := s.question.(GroupedMultipleQuestion); !ok {
		return &StateError{State: s.state, Action: "select", Reason: "only grouped multiple questions take selections"}
	}
	if err := validateChoice(s.question, itemID, choice); err != nil {
		return err
	}
	if s.selections == nil {
		s.selections = make(map[string]ChoiceID)
	}
	s.selections[itemID] = choice
	if s.state == StatePresentingQuestion {
		c.transition(s, StateAwaitingAnswer)
	} else {
		s.updatedAt = c.now()
	}
	return nil
}

// Confirm commits every selection as one batch and runs the next round-trip.
func (c *Controller) Confirm(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if err := c.checkAnswerable(s, "confirm"); err != nil {
		s.mu.Unlock()
		return err
	}
	q, ok := s.question.(GroupedMultipleQuestion)
	if !ok {
		s.mu.Unlock()
		return &StateError{State: s.state, Action: "confirm", Reason: "only grouped multiple questions need confirmation"}
	}

	batch := make([]EvidenceItem, 0, len(q.Options))
	for _, it := range q.Options {
		if choice, ok := s.selections[it.ID]; ok {
			batch = append(batch, EvidenceItem{ID: it.ID, ChoiceID: choice})
		}
	}
	if missing := len(q.Options) - len(batch); missing > 0 {
		s.mu.Unlock()
		return &ValidationError{
			Field:   "selections",
			Message: fmt.Sprintf("still missing %d answers", missing),
			Missing: missing,
		}
	}
	if err := s.evidence.UpsertBatch(batch); err != nil {
		s.mu.Unlock()
		return err
	}
	s.selections = nil
	c.transition(s, StateAwaitingStep)
	step := c.beginStep(s)
	s.mu.Unlock()

	return c.completeStep(ctx, s, step)
}

// Extend lifts the question limit once. The new limit is the hard ceiling.
func (c *Controller) Extend(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLimitReached {
		return &StateError{State: s.state, Action: "extend the interview"}
	}
	cfg := c.policy.Config()
	s.maxQuestions = cfg.ExtendedLimit(cfg.MaxQuestions)
	s.extended = true
	s.reason = ReasonNone
	c.transition(s, StatePresentingQuestion)
	return nil
}

// Finish ends the interview on the user's request. At least one round-trip
// must have completed so there is something to show.
func (c *Controller) Finish(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateLimitReached:
		c.finalize(s, ReasonQuestionLimit)
		return nil
	case s.answerable() && s.questionCount > 0:
		c.finalize(s, ReasonUserFinished)
		return nil
	default:
		return &StateError{State: s.state, Action: "finish the interview"}
	}
}

// Reset clears the session back to demographics under a fresh interview id.
// Any call still in flight becomes stale.
func (c *Controller) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interviewID = c.newID()
	s.patient = Patient{}
	s.evidence.reset()
	s.conditions = nil
	s.question = nil
	s.remoteShouldStop = false
	s.selections = nil
	s.questionCount = 0
	s.maxQuestions = c.policy.Config().MaxQuestions
	s.extended = false
	s.emergencies = nil
	s.reason = ReasonNone
	s.inFlight = false
	c.transition(s, StateCollectingDemographics)
}

type pendingStep struct {
	req DiagnosisRequest
}

// beginStep snapshots the request and marks the session busy. Caller holds s.mu.
func (c *Controller) beginStep(s *Session) pendingStep {
	now := c.now()
	s.inFlight = true
	return pendingStep{req: DiagnosisRequest{
		InterviewID: s.interviewID,
		Patient:     s.patient,
		Evidence:    s.evidence.Items(),
		EvaluatedAt: &now,
		Extras:      c.extras,
	}}
}

func (c *Controller) completeStep(ctx context.Context, s *Session, p pendingStep) error {
	step, err := c.gateway.Diagnose(ctx, p.req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interviewID != p.req.InterviewID {
		return ErrStaleResponse
	}
	s.inFlight = false
	if err != nil {
		return asGatewayError("diagnosis", err)
	}
	if step == nil {
		return &GatewayError{Op: "diagnosis", Err: errors.New("empty response")}
	}

	s.questionCount++
	s.conditions = step.Conditions
	s.question = step.Question
	s.remoteShouldStop = step.ShouldStop
	s.selections = nil

	if len(step.Conditions) > 0 && c.notifier != nil {
		c.notifier.LeadingConditions(ctx, LeadingConditions{
			SessionKey:    s.key,
			InterviewID:   s.interviewID,
			QuestionCount: s.questionCount,
			Conditions:    Leading(step.Conditions, LeadingCount),
		})
	}

	d := c.policy.Evaluate(PolicyInput{
		Conditions:       step.Conditions,
		QuestionCount:    s.questionCount,
		RemoteShouldStop: step.ShouldStop,
		HasQuestion:      step.Question != nil,
		MaxQuestions:     s.maxQuestions,
		KnownEmergencies: s.emergencies,
	})
	s.emergencies = d.Emergencies

	switch {
	case !d.Stop && step.Question != nil:
		s.reason = ReasonNone
		c.transition(s, StatePresentingQuestion)
	case d.Stop && d.Reason == ReasonQuestionLimit && !s.extended:
		s.reason = ReasonQuestionLimit
		c.transition(s, StateLimitReached)
	case d.Stop:
		c.finalize(s, d.Reason)
	default:
		// below the minimum length but the remote has nothing left to ask
		c.finalize(s, ReasonNoQuestion)
	}
	return nil
}

func (c *Controller) finalize(s *Session, reason StopReason) {
	s.reason = reason
	s.question = nil
	s.selections = nil
	c.transition(s, StateFinalized)
}

func (c *Controller) transition(s *Session, to State) {
	s.state = to
	s.updatedAt = c.now()
}

func (c *Controller) checkAnswerable(s *Session, action string) error {
	if !s.answerable() || s.question == nil {
		return &StateError{State: s.state, Action: action, Reason: "no question is pending"}
	}
	if s.inFlight {
		return &StateError{State: s.state, Action: action, Reason: "a request is already in flight"}
	}
	return nil
}

func validateChoice(q Question, itemID string, choice ChoiceID) error {
	item, ok := findItem(q, itemID)
	if !ok {
		return &ValidationError{Field: "item_id", Message: fmt.Sprintf("item %q is not part of the current question", itemID)}
	}
	if !choice.Valid() || !item.hasChoice(choice) {
		return &ValidationError{Field: "choice_id", Message: fmt.Sprintf("choice %q is not offered for %q", choice, itemID)}
	}
	return nil
}

func filterMentions(mentions []Mention) []Mention {
	out := make([]Mention, 0, len(mentions))
	for _, m := range mentions {
		if m.Relevance != nil && *m.Relevance <= MinRelevance {
			continue
		}
		out = append(out, m)
	}
	return out
}

func asGatewayError(op string, err error) error {
	var g *GatewayError
	if errors.As(err, &g) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}
