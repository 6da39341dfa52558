// internal/models/intent.go
package models

// Intent is the structured reading of a user question.
type Intent struct {
	Metrics      []string `json:"metrics"`
	Companies    []string `json:"companies"`
	Periods      []string `json:"periods"`
	IsComparison bool     `json:"is_comparison"`
	AskInsights  bool     `json:"ask_insights"`
}

// EmptyIntent matches every record when filtering.
func EmptyIntent() Intent {
	return Intent{
		Metrics:   []string{},
		Companies: []string{},
		Periods:   []string{},
	}
}

// Normalize replaces nil collections with empty ones so they serialize as [].
func (i Intent) Normalize() Intent {
	if i.Metrics == nil {
		i.Metrics = []string{}
	}
	if i.Companies == nil {
		i.Companies = []string{}
	}
	if i.Periods == nil {
		i.Periods = []string{}
	}
	return i
}

type OutcomeKind string

const (
	IntentParsed   OutcomeKind = "parsed"
	IntentFallback OutcomeKind = "fallback"
)

// IntentOutcome says whether the model's output was used or replaced by EmptyIntent.
type IntentOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

func ParsedOutcome() IntentOutcome {
	return IntentOutcome{Kind: IntentParsed}
}

func FallbackOutcome(reason string) IntentOutcome {
	return IntentOutcome{Kind: IntentFallback, Reason: reason}
}

func (o IntentOutcome) IsFallback() bool {
	return o.Kind == IntentFallback
}
