// internal/models/record.go
package models

import "math"

// Record is one row of the financial dataset.
// Missing numeric cells are NaN.
type Record struct {
	Company          string  `json:"company"`
	Period           string  `json:"period"`
	Metric           string  `json:"metric"`
	RealizationValue float64 `json:"realization_budget"`
	PlanningValue    float64 `json:"planning_budget"`
	Unit             string  `json:"unit"`
}

// HasRealization reports whether the realization value is present.
func (r Record) HasRealization() bool {
	return !math.IsNaN(r.RealizationValue)
}

// ToMap converts the record to plain data keyed by the dataset's column names.
// NaN values are kept; callers normalize before serializing.
func (r Record) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"company":            r.Company,
		"date_str":           r.Period,
		"metrics":            r.Metric,
		"realization_budget": r.RealizationValue,
		"planning_budget":    r.PlanningValue,
		"column_format":      r.Unit,
	}
}

// RecordsToMaps converts records in order. The result is never nil.
func RecordsToMaps(records []Record) []interface{} {
	out := make([]interface{}, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToMap())
	}
	return out
}
