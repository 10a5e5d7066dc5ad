package interview

import "sort"

// ConditionDetails is optional metadata used by the emergency scan.
type ConditionDetails struct {
	Severity    string `json:"severity,omitempty"`  // mild, moderate, severe
	Acuteness   string `json:"acuteness,omitempty"` // chronic, acute, ...
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Condition is a candidate diagnosis from the remote service.
type Condition struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	CommonName  string            `json:"common_name"`
	Probability float64           `json:"probability"`
	Details     *ConditionDetails `json:"details,omitempty"`
}

// DisplayName prefers the common name.
func (c Condition) DisplayName() string {
	if c.CommonName != "" {
		return c.CommonName
	}
	return c.Name
}

// Ranked returns a copy of conditions ordered by descending probability.
// Equal probabilities keep their remote order.
func Ranked(conditions []Condition) []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

// Leading returns at most n conditions in ranked order.
func Leading(conditions []Condition, n int) []Condition {
	ranked := Ranked(conditions)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
