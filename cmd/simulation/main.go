package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"symptom-checker-be/internal/bootstrap"
	"symptom-checker-be/internal/config"
	"symptom-checker-be/pkg/interview"

	"github.com/fatih/color"
)

// round is one scripted reply from the diagnosis service.
type round struct {
	conditions []interview.Condition
	shouldStop bool
	question   bool
}

type scenario struct {
	description string
	complaint   string
	mentions    []interview.Mention
	rounds      []round
}

func yesNo(id, name string) interview.Question {
	q, _ := interview.NewQuestion(interview.KindSingle, "Do you have "+strings.ToLower(name)+"?", []interview.QuestionItem{{
		ID:   id,
		Name: name,
		Choices: []interview.Choice{
			{ID: interview.ChoicePresent, Label: "Yes"},
			{ID: interview.ChoiceAbsent, Label: "No"},
			{ID: interview.ChoiceUnknown, Label: "Don't know"},
		},
	}})
	return q
}

func cond(id, name string, p float64) interview.Condition {
	return interview.Condition{ID: id, Name: name, Probability: p}
}

var scenarios = map[string]scenario{
	"headache": {
		description: "confidence climbs until the leader passes the high-confidence cut-off",
		complaint:   "I have had a throbbing headache since yesterday",
		mentions:    []interview.Mention{{ID: "s_21", Name: "Headache", ChoiceID: interview.ChoicePresent}},
		rounds: []round{
			{conditions: []interview.Condition{cond("c_55", "Tension-type headache", 0.42), cond("c_49", "Migraine", 0.31)}, question: true},
			{conditions: []interview.Condition{cond("c_55", "Tension-type headache", 0.58), cond("c_49", "Migraine", 0.30)}, question: true},
			{conditions: []interview.Condition{cond("c_55", "Tension-type headache", 0.91), cond("c_49", "Migraine", 0.05)}, question: true},
		},
	},
	"emergency": {
		description: "an acute condition matches an emergency keyword without stopping the interview",
		complaint:   "Sudden chest pain going down my left arm",
		mentions:    []interview.Mention{{ID: "s_1199", Name: "Chest pain", ChoiceID: interview.ChoicePresent}},
		rounds: []round{
			{conditions: []interview.Condition{
				{ID: "c_2", Name: "Myocardial infarction", Probability: 0.35, Details: &interview.ConditionDetails{Severity: "severe", Acuteness: "acute"}},
				cond("c_10", "Costochondritis", 0.30),
			}, question: true},
			{conditions: []interview.Condition{
				{ID: "c_2", Name: "Myocardial infarction", Probability: 0.62, Details: &interview.ConditionDetails{Severity: "severe", Acuteness: "acute"}},
				cond("c_10", "Costochondritis", 0.12),
			}, question: true},
		},
	},
	"limit": {
		description: "nothing converges and the question limit is reached",
		complaint:   "I feel tired and a bit dizzy most days",
		mentions:    []interview.Mention{{ID: "s_2100", Name: "Fatigue", ChoiceID: interview.ChoicePresent}},
		rounds: []round{
			{conditions: []interview.Condition{cond("c_1", "Anemia", 0.20), cond("c_2", "Hypothyroidism", 0.18)}, question: true},
		},
	},
}

// scriptedGateway replays a scenario; the last round repeats once the
// script runs out.
type scriptedGateway struct {
	sc    scenario
	calls int
}

func (g *scriptedGateway) Parse(_ context.Context, _ interview.ParseRequest) ([]interview.Mention, error) {
	return g.sc.mentions, nil
}

func (g *scriptedGateway) Diagnose(_ context.Context, req interview.DiagnosisRequest) (*interview.DiagnosisStep, error) {
	r := g.sc.rounds[min(g.calls, len(g.sc.rounds)-1)]
	g.calls++
	step := &interview.DiagnosisStep{Conditions: r.conditions, ShouldStop: r.shouldStop}
	if r.question {
		step.Question = yesNo(fmt.Sprintf("s_q%d", g.calls), fmt.Sprintf("symptom number %d", g.calls))
	}
	return step, nil
}

func main() {
	name := flag.String("scenario", "headache", "scenario to run")
	extend := flag.Bool("extend", false, "continue past the question limit once")
	flag.Parse()

	sc, ok := scenarios[*name]
	if !ok {
		names := make([]string, 0, len(scenarios))
		for n := range scenarios {
			names = append(names, n)
		}
		sort.Strings(names)
		color.Red("Unknown scenario %q, pick one of: %s", *name, strings.Join(names, ", "))
		os.Exit(2)
	}

	cfg := config.Load()
	gw := &scriptedGateway{sc: sc}
	ctrl := interview.NewController(gw, gw, interview.NewStopPolicy(bootstrap.PolicyConfig(cfg.Interview)))
	ctx := context.Background()

	color.Cyan("=== Interview simulation: %s ===", *name)
	fmt.Println(sc.description)

	s := ctrl.Start()
	must(ctrl.SetDemographics(s, 34, interview.SexFemale))
	color.Yellow("\nPATIENT: %s", sc.complaint)
	must(ctrl.SubmitSymptoms(ctx, s, sc.complaint))
	report(s.View())

	for {
		v := s.View()
		switch v.State {
		case interview.StateFinalized:
			color.Green("\nFinalized after %d questions (%s)", v.QuestionCount, v.Reason)
			return
		case interview.StateLimitReached:
			if *extend {
				color.Yellow("\nLimit of %d reached, extending", v.MaxQuestions)
				must(ctrl.Extend(s))
				continue
			}
			color.Yellow("\nLimit of %d reached, finishing", v.MaxQuestions)
			must(ctrl.Finish(s))
			continue
		}

		q, err := ctrl.Present(s)
		must(err)
		item := q.Items()[0]
		fmt.Printf("\nQ%d: %s -> yes\n", v.QuestionCount, q.Prompt())
		must(ctrl.Answer(ctx, s, item.ID, interview.ChoicePresent))
		report(s.View())
	}
}

func report(v interview.View) {
	for i, c := range interview.Leading(v.Conditions, interview.LeadingCount) {
		fmt.Printf("  %d. %-28s %5.1f%%\n", i+1, c.DisplayName(), c.Probability*100)
	}
	if len(v.Emergencies) > 0 {
		color.Red("  EMERGENCY: %s", strings.Join(v.Emergencies, ", "))
	}
	fmt.Printf("  state=%s questions=%d/%d\n", v.State, v.QuestionCount, v.MaxQuestions)
}

func must(err error) {
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
}
