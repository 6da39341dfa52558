// internal/workers/query/extract-intent/models.go
package extractintent

import "finsight/internal/models"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Intent  models.Intent        `json:"intent"`
	Outcome models.IntentOutcome `json:"outcome"`
}

// Lookups supplies the value lists the model may choose from.
type Lookups interface {
	Metrics() []string
	Companies() []string
	Periods() []string
}
