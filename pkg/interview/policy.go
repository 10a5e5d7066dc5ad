package interview

import "strings"

// StopReason names the rule that ended the interview.
type StopReason string

const (
	ReasonNone              StopReason = ""
	ReasonHighConfidence    StopReason = "high_confidence"
	ReasonDominantLeader    StopReason = "dominant_leader"
	ReasonConfirmedLeader   StopReason = "confirmed_leader"
	ReasonRemoteStop        StopReason = "remote_stop"
	ReasonNoQuestion        StopReason = "no_question"
	ReasonQuestionLimit     StopReason = "question_limit"
	ReasonConverged         StopReason = "converged"
	ReasonUserFinished      StopReason = "user_finished"
	ReasonMinimumNotReached StopReason = "minimum_not_reached"
)

// PolicyConfig holds the heuristic cut-offs used by StopPolicy.
type PolicyConfig struct {
	HighConfidence          float64
	DominanceGap            float64
	ConfirmedConfidence     float64
	ConvergenceConfidence   float64
	MinQuestions            int
	RemoteStopMinQuestions  int
	ConvergenceMinQuestions int
	MaxQuestions            int
	ExtensionFactor         float64
	EmergencyKeywords       []string
}

var DefaultEmergencyKeywords = []string{
	"severe chest pain",
	"chest pain",
	"heart attack",
	"myocardial infarction",
	"stroke symptoms",
	"stroke",
	"anaphylaxis",
	"anaphylactic",
	"difficulty breathing",
	"shortness of breath",
	"pulmonary embolism",
	"loss of consciousness",
	"severe bleeding",
	"seizure",
	"meningitis",
	"sepsis",
	"suicidal",
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		HighConfidence:          0.85,
		DominanceGap:            0.40,
		ConfirmedConfidence:     0.70,
		ConvergenceConfidence:   0.60,
		MinQuestions:            3,
		RemoteStopMinQuestions:  5,
		ConvergenceMinQuestions: 6,
		MaxQuestions:            15,
		ExtensionFactor:         1.5,
		EmergencyKeywords:       DefaultEmergencyKeywords,
	}
}

// ExtendedLimit is the hard ceiling once the caller continues past base.
func (c PolicyConfig) ExtendedLimit(base int) int {
	return int(float64(base) * c.ExtensionFactor)
}

// PolicyInput is everything the evaluator looks at after one round-trip.
// Evidence does not take part in any rule and is not part of the input.
type PolicyInput struct {
	Conditions       []Condition
	QuestionCount    int
	RemoteShouldStop bool
	HasQuestion      bool
	MaxQuestions     int
	KnownEmergencies []string
}

// Decision is the evaluator's verdict. Emergencies always contains the
// running list including any new matches.
type Decision struct {
	Stop        bool       `json:"stop"`
	Reason      StopReason `json:"reason,omitempty"`
	Emergencies []string   `json:"emergencies"`
}

// StopPolicy evaluates the ordered stop rules. It holds no state.
type StopPolicy struct {
	cfg      PolicyConfig
	keywords []string
}

func NewStopPolicy(cfg PolicyConfig) *StopPolicy {
	kw := make([]string, 0, len(cfg.EmergencyKeywords))
	for _, k := range cfg.EmergencyKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &StopPolicy{cfg: cfg, keywords: kw}
}

func (p *StopPolicy) Config() PolicyConfig { return p.cfg }

// Evaluate applies the rules in priority order; the first matching rule
// decides. The emergency scan runs first and never stops the interview.
func (p *StopPolicy) Evaluate(in PolicyInput) Decision {
	d := Decision{Emergencies: p.scanEmergencies(in.Conditions, in.KnownEmergencies)}
	d.Stop, d.Reason = p.decide(in)
	return d
}

func (p *StopPolicy) decide(in PolicyInput) (bool, StopReason) {
	ranked := Ranked(in.Conditions)
	hasLeader := len(ranked) > 0
	var top float64
	if hasLeader {
		top = ranked[0].Probability
	}

	if hasLeader {
		if top > p.cfg.HighConfidence {
			return true, ReasonHighConfidence
		}
		if len(ranked) >= 2 && top-ranked[1].Probability > p.cfg.DominanceGap {
			return true, ReasonDominantLeader
		}
		if top > p.cfg.ConfirmedConfidence && in.RemoteShouldStop {
			return true, ReasonConfirmedLeader
		}
	}
	if in.QuestionCount < p.cfg.MinQuestions {
		return false, ReasonMinimumNotReached
	}
	if in.RemoteShouldStop && in.QuestionCount >= p.cfg.RemoteStopMinQuestions {
		return true, ReasonRemoteStop
	}
	if !in.HasQuestion {
		return true, ReasonNoQuestion
	}
	if in.QuestionCount >= in.MaxQuestions {
		return true, ReasonQuestionLimit
	}
	if hasLeader && in.QuestionCount >= p.cfg.ConvergenceMinQuestions && top > p.cfg.ConvergenceConfidence {
		return true, ReasonConverged
	}
	return false, ReasonNone
}

// scanEmergencies only looks at conditions the remote flagged as acute or
// severe. Matches are appended to known without duplicates.
func (p *StopPolicy) scanEmergencies(conditions []Condition, known []string) []string {
	out := make([]string, 0, len(known))
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	for _, c := range conditions {
		if !isUrgent(c.Details) {
			continue
		}
		text := strings.ToLower(strings.Join([]string{c.Name, c.CommonName, c.Details.Description}, " "))
		for _, kw := range p.keywords {
			if seen[kw] || !strings.Contains(text, kw) {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}

func isUrgent(d *ConditionDetails) bool {
	if d == nil {
		return false
	}
	if strings.EqualFold(d.Severity, "severe") {
		return true
	}
	acuteness := strings.ToLower(d.Acuteness)
	return acuteness == "acute" || acuteness == "acute_potentially_chronic"
}
