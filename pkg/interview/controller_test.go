package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	steps    []*DiagnosisStep
	err      error
	requests []DiagnosisRequest
}

func (g *fakeGateway) Diagnose(_ context.Context, req DiagnosisRequest) (*DiagnosisStep, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	if len(g.steps) == 0 {
		return nil, errors.New("no scripted step")
	}
	step := g.steps[0]
	g.steps = g.steps[1:]
	return step, nil
}

type fakeParser struct {
	mentions []Mention
	err      error
	last     ParseRequest
}

func (p *fakeParser) Parse(_ context.Context, req ParseRequest) ([]Mention, error) {
	p.last = req
	return p.mentions, p.err
}

type recordingNotifier struct {
	events []LeadingConditions
}

func (n *recordingNotifier) LeadingConditions(_ context.Context, ev LeadingConditions) {
	n.events = append(n.events, ev)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func yesNo(id, name string) QuestionItem {
	return QuestionItem{ID: id, Name: name, Choices: []Choice{
		{ID: ChoicePresent, Label: "Yes"},
		{ID: ChoiceAbsent, Label: "No"},
		{ID: ChoiceUnknown, Label: "Don't know"},
	}}
}

func singleStep(itemID string, conditions ...Condition) *DiagnosisStep {
	return &DiagnosisStep{
		Question:   SingleQuestion{Text: "Do you have " + itemID + "?", Item: yesNo(itemID, itemID)},
		Conditions: conditions,
	}
}

func relevance(v float64) *float64 { return &v }

func newTestController(gw DiagnosisGateway, parser SymptomParser, cfg PolicyConfig, opts ...Option) *Controller {
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return NewController(gw, parser, NewStopPolicy(cfg), opts...)
}

// startInterview drives a session up to the first presented question.
func startInterview(t *testing.T, c *Controller) *Session {
	t.Helper()
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 34, SexFemale))
	require.NoError(t, c.SubmitSymptoms(context.Background(), s, "I have a severe headache and nausea"))
	return s
}

func TestController_HeadacheScenario(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{
		singleStep("s_1", cond("c_migraine", 0.42), cond("c_tension", 0.30)),
		singleStep("s_2", cond("c_migraine", 0.58), cond("c_tension", 0.25)),
		singleStep("s_3", cond("c_migraine", 0.91), cond("c_tension", 0.05)),
	}}
	parser := &fakeParser{mentions: []Mention{
		{ID: "s_21", Name: "Headache, severe", ChoiceID: ChoicePresent, Initial: true},
		{ID: "s_156", Name: "Nausea", ChoiceID: ChoicePresent},
	}}
	notifier := &recordingNotifier{}
	c := newTestController(gw, parser, DefaultPolicyConfig(), WithNotifier(notifier))

	s := startInterview(t, c)

	// 1. Parser and first round-trip
	assert.Equal(t, Patient{Age: 34, Sex: SexFemale}, parser.last.Patient)
	require.Len(t, gw.requests, 1)
	assert.Len(t, gw.requests[0].Evidence, 2)
	assert.Equal(t, s.InterviewID(), gw.requests[0].InterviewID)
	assert.Equal(t, StatePresentingQuestion, s.State())
	assert.Equal(t, 1, s.View().QuestionCount)

	// 2. Two answers, top probability keeps rising
	q, err := c.Present(s)
	require.NoError(t, err)
	require.NoError(t, c.Answer(context.Background(), s, q.Items()[0].ID, ChoicePresent))
	assert.Equal(t, StatePresentingQuestion, s.State())

	q, err = c.Present(s)
	require.NoError(t, err)
	require.NoError(t, c.Answer(context.Background(), s, q.Items()[0].ID, ChoiceAbsent))

	// 3. Third result stops on high confidence
	view := s.View()
	assert.Equal(t, StateFinalized, view.State)
	assert.Equal(t, ReasonHighConfidence, view.Reason)
	assert.Equal(t, 3, view.QuestionCount)
	assert.Nil(t, view.Question)
	assert.Len(t, view.Evidence, 4)
	assert.Len(t, gw.requests[1].Evidence, 3)
	assert.Len(t, gw.requests[2].Evidence, 4)

	require.Len(t, notifier.events, 3)
	assert.Equal(t, 0.91, notifier.events[2].Conditions[0].Probability)
	assert.Equal(t, s.Key(), notifier.events[2].SessionKey)
}

func TestController_Demographics(t *testing.T) {
	c := newTestController(&fakeGateway{}, &fakeParser{}, DefaultPolicyConfig())

	tests := []struct {
		name  string
		age   int
		sex   Sex
		field string
	}{
		{"zero age", 0, SexMale, "age"},
		{"too old", 121, SexMale, "age"},
		{"unknown sex", 30, "other", "sex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.Start()
			err := c.SetDemographics(s, tt.age, tt.sex)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, StateCollectingDemographics, s.State())
		})
	}

	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 120, SexMale))
	assert.Equal(t, StateCollectingSymptoms, s.State())
	assert.True(t, IsState(c.SetDemographics(s, 40, SexMale)))
}

func TestController_SymptomsReprompt(t *testing.T) {
	gw := &fakeGateway{}
	parser := &fakeParser{mentions: []Mention{
		{ID: "s_1", ChoiceID: ChoicePresent, Relevance: relevance(0.4)},
		{ID: "s_2", ChoiceID: ChoicePresent, Relevance: relevance(0.1)},
	}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 50, SexMale))

	err := c.SubmitSymptoms(context.Background(), s, "  short  ")
	assert.True(t, IsValidation(err))

	err = c.SubmitSymptoms(context.Background(), s, "my back hurts a lot")
	assert.True(t, IsValidation(err))
	assert.Equal(t, StateCollectingSymptoms, s.State())
	assert.Empty(t, gw.requests)
	assert.Empty(t, s.View().Evidence)
}

func TestController_SymptomsKeepRelevantMentions(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{singleStep("s_9")}}
	parser := &fakeParser{mentions: []Mention{
		{ID: "s_1", ChoiceID: ChoicePresent, Relevance: relevance(0.41)},
		{ID: "s_2", ChoiceID: ChoicePresent, Relevance: relevance(0.2)},
		{ID: "s_3", ChoiceID: ChoiceAbsent},
	}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 50, SexMale))

	require.NoError(t, c.SubmitSymptoms(context.Background(), s, "my back hurts a lot"))

	assert.Equal(t, []EvidenceItem{
		{ID: "s_1", ChoiceID: ChoicePresent},
		{ID: "s_3", ChoiceID: ChoiceAbsent},
	}, s.View().Evidence)
}

func TestController_ParserFailure(t *testing.T) {
	parser := &fakeParser{err: errors.New("connection refused")}
	c := newTestController(&fakeGateway{}, parser, DefaultPolicyConfig())
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 50, SexMale))

	err := c.SubmitSymptoms(context.Background(), s, "my back hurts a lot")

	assert.True(t, IsGateway(err))
	assert.Equal(t, StateCollectingSymptoms, s.State())
	assert.False(t, s.View().InFlight)
}

func TestController_GatewayFailureKeepsRoundOpen(t *testing.T) {
	gw := &fakeGateway{err: &GatewayError{Op: "diagnosis", StatusCode: 503, Err: errors.New("unavailable")}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 34, SexFemale))

	err := c.SubmitSymptoms(context.Background(), s, "I have a severe headache")

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 503, gerr.StatusCode)
	view := s.View()
	assert.Equal(t, StateAwaitingStep, view.State)
	assert.Equal(t, 0, view.QuestionCount)
	assert.False(t, view.InFlight)

	// retry with unchanged evidence
	gw.err = nil
	gw.steps = []*DiagnosisStep{singleStep("s_1", cond("c_1", 0.2))}
	require.NoError(t, c.RequestStep(context.Background(), s))

	assert.Equal(t, gw.requests[0].Evidence, gw.requests[1].Evidence)
	assert.Equal(t, 1, s.View().QuestionCount)
	assert.Equal(t, StatePresentingQuestion, s.State())
}

func TestController_GroupedMultipleConfirm(t *testing.T) {
	grouped := &DiagnosisStep{
		Question: GroupedMultipleQuestion{Text: "Do you have any of these?", Options: []QuestionItem{
			yesNo("s_10", "Fever"), yesNo("s_11", "Cough"), yesNo("s_12", "Rash"),
		}},
		Conditions: []Condition{cond("c_1", 0.3), cond("c_2", 0.2)},
	}
	gw := &fakeGateway{steps: []*DiagnosisStep{grouped, singleStep("s_13", cond("c_1", 0.35))}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := startInterview(t, c)

	assert.True(t, IsState(c.Answer(context.Background(), s, "s_10", ChoicePresent)))

	require.NoError(t, c.Select(s, "s_10", ChoicePresent))
	require.NoError(t, c.Select(s, "s_11", ChoiceAbsent))
	require.NoError(t, c.Select(s, "s_11", ChoiceUnknown))

	err := c.Confirm(context.Background(), s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Missing)
	assert.Equal(t, "still missing 1 answers", verr.Message)
	assert.Equal(t, StateAwaitingAnswer, s.State())
	assert.Equal(t, 1, s.View().QuestionCount)
	assert.Len(t, s.View().Evidence, 1)

	require.NoError(t, c.Select(s, "s_12", ChoiceAbsent))
	require.NoError(t, c.Confirm(context.Background(), s))

	view := s.View()
	assert.Equal(t, 2, view.QuestionCount, "one increment per round-trip, not per item")
	assert.Empty(t, view.Selections)
	assert.Equal(t, []EvidenceItem{
		{ID: "s_21", ChoiceID: ChoicePresent},
		{ID: "s_10", ChoiceID: ChoicePresent},
		{ID: "s_11", ChoiceID: ChoiceUnknown},
		{ID: "s_12", ChoiceID: ChoiceAbsent},
	}, view.Evidence)
	assert.Equal(t, StatePresentingQuestion, view.State)
}

func TestController_AnswerValidation(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{singleStep("s_1", cond("c_1", 0.2))}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := startInterview(t, c)

	assert.True(t, IsValidation(c.Answer(context.Background(), s, "s_404", ChoicePresent)))
	assert.True(t, IsValidation(c.Answer(context.Background(), s, "s_1", "maybe")))
	assert.True(t, IsState(c.Select(s, "s_1", ChoicePresent)))
	assert.True(t, IsState(c.Confirm(context.Background(), s)))
	assert.Equal(t, StatePresentingQuestion, s.State())
	assert.Len(t, gw.requests, 1)
}

func TestController_StateErrors(t *testing.T) {
	c := newTestController(&fakeGateway{}, &fakeParser{}, DefaultPolicyConfig())
	s := c.Start()
	ctx := context.Background()

	assert.True(t, IsState(c.SubmitSymptoms(ctx, s, "I have a severe headache")))
	assert.True(t, IsState(c.RequestStep(ctx, s)))
	assert.True(t, IsState(c.Answer(ctx, s, "s_1", ChoicePresent)))
	assert.True(t, IsState(c.Extend(s)))
	assert.True(t, IsState(c.Finish(s)))

	_, err := c.Present(s)
	assert.True(t, IsState(err))

	var serr *StateError
	require.ErrorAs(t, c.Answer(ctx, s, "s_1", ChoicePresent), &serr)
	assert.Equal(t, StateCollectingDemographics, serr.State)
}

func TestController_StaleResponseAfterReset(t *testing.T) {
	gw := &blockingGateway{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		step:    singleStep("s_1", cond("c_1", 0.3)),
	}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := c.Start()
	require.NoError(t, c.SetDemographics(s, 34, SexFemale))
	oldID := s.InterviewID()

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitSymptoms(context.Background(), s, "I have a severe headache")
	}()

	<-gw.entered
	assert.True(t, s.View().InFlight)
	assert.True(t, IsState(c.RequestStep(context.Background(), s)))

	c.Reset(s)
	close(gw.release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStaleResponse)
	case <-time.After(2 * time.Second):
		t.Fatal("round-trip did not complete")
	}

	view := s.View()
	assert.NotEqual(t, oldID, view.InterviewID)
	assert.Equal(t, StateCollectingDemographics, view.State)
	assert.Zero(t, view.QuestionCount)
	assert.Empty(t, view.Evidence)
	assert.Nil(t, view.Question)
	assert.False(t, view.InFlight)
}

type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
	step    *DiagnosisStep
}

func (g *blockingGateway) Diagnose(ctx context.Context, _ DiagnosisRequest) (*DiagnosisStep, error) {
	close(g.entered)
	<-g.release
	return g.step, nil
}

func TestController_LimitReachedAndExtend(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.MaxQuestions = 4

	gw := &fakeGateway{}
	for i := 0; i < 6; i++ {
		gw.steps = append(gw.steps, singleStep(fmt.Sprintf("s_%d", i), cond("c_1", 0.30), cond("c_2", 0.25)))
	}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, cfg)
	s := startInterview(t, c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := c.Present(s)
		require.NoError(t, err)
		require.NoError(t, c.Answer(ctx, s, q.Items()[0].ID, ChoiceAbsent))
	}

	view := s.View()
	assert.Equal(t, StateLimitReached, view.State)
	assert.Equal(t, ReasonQuestionLimit, view.Reason)
	assert.True(t, view.CanExtend)
	assert.NotNil(t, view.Question)

	require.NoError(t, c.Extend(s))
	view = s.View()
	assert.Equal(t, 6, view.MaxQuestions)
	assert.True(t, view.Extended)
	assert.Equal(t, StatePresentingQuestion, view.State)

	for i := 0; i < 2; i++ {
		q, err := c.Present(s)
		require.NoError(t, err)
		require.NoError(t, c.Answer(ctx, s, q.Items()[0].ID, ChoiceAbsent))
	}

	view = s.View()
	assert.Equal(t, StateFinalized, view.State)
	assert.Equal(t, ReasonQuestionLimit, view.Reason)
	assert.Equal(t, 6, view.QuestionCount)
	assert.True(t, IsState(c.Extend(s)))
}

func TestController_FinishEarly(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{singleStep("s_1", cond("c_1", 0.3))}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := startInterview(t, c)

	require.NoError(t, c.Finish(s))

	view := s.View()
	assert.Equal(t, StateFinalized, view.State)
	assert.Equal(t, ReasonUserFinished, view.Reason)
	assert.Len(t, view.Conditions, 1)
	assert.True(t, IsState(c.Finish(s)))
}

func TestController_NoQuestionBelowMinimumFinalizes(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{{Conditions: []Condition{cond("c_1", 0.3)}}}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())

	s := startInterview(t, c)

	view := s.View()
	assert.Equal(t, StateFinalized, view.State)
	assert.Equal(t, ReasonNoQuestion, view.Reason)
}

func TestController_ResetAfterFinalize(t *testing.T) {
	gw := &fakeGateway{steps: []*DiagnosisStep{singleStep("s_1", cond("c_1", 0.95))}}
	parser := &fakeParser{mentions: []Mention{{ID: "s_21", ChoiceID: ChoicePresent}}}
	c := newTestController(gw, parser, DefaultPolicyConfig())
	s := startInterview(t, c)
	require.Equal(t, StateFinalized, s.State())
	key, oldID := s.Key(), s.InterviewID()

	c.Reset(s)

	assert.Equal(t, key, s.Key())
	assert.NotEqual(t, oldID, s.InterviewID())
	assert.Equal(t, StateCollectingDemographics, s.State())
	assert.Equal(t, DefaultPolicyConfig().MaxQuestions, s.View().MaxQuestions)
}
