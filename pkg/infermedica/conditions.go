package infermedica

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"symptom-checker-be/pkg/interview"
)

type conditionDetails struct {
	ID         string   `json:"id"`
	Severity   string   `json:"severity"`
	Acuteness  string   `json:"acuteness"`
	Categories []string `json:"categories"`
	Extras     struct {
		Hint string `json:"hint"`
	} `json:"extras"`
}

// ConditionDetails returns severity and acuteness metadata for a condition.
// Results are cached; the vocabulary does not change within a process.
func (c *Client) ConditionDetails(ctx context.Context, interviewID, id string) (interview.ConditionDetails, error) {
	if d, ok := c.details.Get(id); ok {
		return d, nil
	}

	var resp conditionDetails
	if err := c.do(ctx, "condition details", http.MethodGet, "/conditions/"+url.PathEscape(id), interviewID, nil, &resp); err != nil {
		return interview.ConditionDetails{}, err
	}

	d := interview.ConditionDetails{
		Severity:    resp.Severity,
		Acuteness:   resp.Acuteness,
		Category:    strings.Join(resp.Categories, ", "),
		Description: resp.Extras.Hint,
	}
	c.details.Add(id, d)
	return d, nil
}

// enrich attaches details to the leading conditions in place. Lookups that
// fail leave Details nil, which the emergency scan treats as not urgent.
func (c *Client) enrich(ctx context.Context, interviewID string, conditions []interview.Condition) {
	if c.cfg.EnrichCount <= 0 || len(conditions) == 0 {
		return
	}
	wanted := make(map[string]bool, c.cfg.EnrichCount)
	for _, cond := range interview.Leading(conditions, c.cfg.EnrichCount) {
		wanted[cond.ID] = true
	}
	for i := range conditions {
		if !wanted[conditions[i].ID] {
			continue
		}
		d, err := c.ConditionDetails(ctx, interviewID, conditions[i].ID)
		if err != nil {
			continue
		}
		conditions[i].Details = &d
	}
}
