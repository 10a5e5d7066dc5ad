package infermedica

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"symptom-checker-be/pkg/interview"
)

type ageValue struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type evidenceItem struct {
	ID       string `json:"id"`
	ChoiceID string `json:"choice_id"`
	Source   string `json:"source,omitempty"`
}

type diagnosisRequest struct {
	Sex         string         `json:"sex"`
	Age         ageValue       `json:"age"`
	Evidence    []evidenceItem `json:"evidence"`
	EvaluatedAt string         `json:"evaluated_at,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

type choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type questionItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Choices []choice `json:"choices"`
}

type question struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	Items []questionItem `json:"items"`
}

type condition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CommonName  string  `json:"common_name"`
	Probability float64 `json:"probability"`
}

type diagnosisResponse struct {
	Question   *question   `json:"question"`
	Conditions []condition `json:"conditions"`
	ShouldStop bool        `json:"should_stop"`
}

// Diagnose posts the full evidence list and converts the reply into a
// diagnosis step.
func (c *Client) Diagnose(ctx context.Context, req interview.DiagnosisRequest) (*interview.DiagnosisStep, error) {
	var resp diagnosisResponse
	if err := c.do(ctx, "diagnosis", http.MethodPost, "/diagnosis", req.InterviewID, toDiagnosisRequest(req), &resp); err != nil {
		return nil, err
	}

	step, err := fromDiagnosisResponse(resp)
	if err != nil {
		return nil, &interview.GatewayError{Op: "diagnosis", StatusCode: http.StatusOK, Err: err}
	}
	c.enrich(ctx, req.InterviewID, step.Conditions)
	return step, nil
}

func toDiagnosisRequest(req interview.DiagnosisRequest) diagnosisRequest {
	out := diagnosisRequest{
		Sex:      string(req.Patient.Sex),
		Age:      ageValue{Value: req.Patient.Age, Unit: "year"},
		Evidence: make([]evidenceItem, 0, len(req.Evidence)),
		Extras:   req.Extras,
	}
	for _, e := range req.Evidence {
		out.Evidence = append(out.Evidence, evidenceItem{
			ID:       e.ID,
			ChoiceID: string(e.ChoiceID),
			Source:   string(e.Source),
		})
	}
	if req.EvaluatedAt != nil {
		out.EvaluatedAt = req.EvaluatedAt.Format(time.DateOnly)
	}
	return out
}

func fromDiagnosisResponse(resp diagnosisResponse) (*interview.DiagnosisStep, error) {
	step := &interview.DiagnosisStep{
		Conditions: make([]interview.Condition, 0, len(resp.Conditions)),
		ShouldStop: resp.ShouldStop,
	}
	for _, c := range resp.Conditions {
		if c.Probability < 0 || c.Probability > 1 {
			return nil, fmt.Errorf("condition %s has probability %v", c.ID, c.Probability)
		}
		step.Conditions = append(step.Conditions, interview.Condition{
			ID:          c.ID,
			Name:        c.Name,
			CommonName:  c.CommonName,
			Probability: c.Probability,
		})
	}

	if resp.Question == nil {
		return step, nil
	}
	items := make([]interview.QuestionItem, 0, len(resp.Question.Items))
	for _, it := range resp.Question.Items {
		qi := interview.QuestionItem{ID: it.ID, Name: it.Name}
		for _, ch := range it.Choices {
			qi.Choices = append(qi.Choices, interview.Choice{ID: interview.ChoiceID(ch.ID), Label: ch.Label})
		}
		items = append(items, qi)
	}
	q, err := interview.NewQuestion(interview.QuestionKind(resp.Question.Type), resp.Question.Text, items)
	if err != nil {
		return nil, err
	}
	step.Question = q
	return step, nil
}
