package infermedica

import (
	"context"
	"net/http"

	"symptom-checker-be/pkg/interview"
)

type parseRequest struct {
	Text string   `json:"text"`
	Age  ageValue `json:"age"`
	Sex  string   `json:"sex"`
}

type mention struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CommonName string   `json:"common_name"`
	ChoiceID   string   `json:"choice_id"`
	Relevance  *float64 `json:"relevance,omitempty"`
}

type parseResponse struct {
	Mentions []mention `json:"mentions"`
	Obvious  bool      `json:"obvious"`
}

// Parse turns a free-text complaint into evidence candidates. Every mention
// is tagged as part of the initial complaint; relevance filtering is left to
// the caller.
func (c *Client) Parse(ctx context.Context, req interview.ParseRequest) ([]interview.Mention, error) {
	body := parseRequest{
		Text: req.Text,
		Age:  ageValue{Value: req.Patient.Age, Unit: "year"},
		Sex:  string(req.Patient.Sex),
	}

	var resp parseResponse
	if err := c.do(ctx, "parse", http.MethodPost, "/parse", req.InterviewID, body, &resp); err != nil {
		return nil, err
	}

	out := make([]interview.Mention, 0, len(resp.Mentions))
	for _, m := range resp.Mentions {
		name := m.CommonName
		if name == "" {
			name = m.Name
		}
		out = append(out, interview.Mention{
			ID:        m.ID,
			Name:      name,
			ChoiceID:  interview.ChoiceID(m.ChoiceID),
			Initial:   true,
			Relevance: m.Relevance,
		})
	}
	return out, nil
}
