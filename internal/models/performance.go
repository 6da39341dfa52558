// internal/models/performance.go
package models

import (
	"encoding/json"

	"finsight/internal/common/jsonsafe"
)

type PerformanceLabel string

const (
	Overperforming  PerformanceLabel = "overperforming"
	Underperforming PerformanceLabel = "underperforming"
	MetTarget       PerformanceLabel = "met_target"
)

type ReportStatus string

const (
	ReportSuccess ReportStatus = "success"
	ReportNoData  ReportStatus = "no_data"
	ReportError   ReportStatus = "error"
)

// RevenueMetric is the metric name reported in every performance result.
const RevenueMetric = "Revenue"

// PerformanceResult labels one revenue row against its plan.
type PerformanceResult struct {
	Company          string
	Period           string // YYYY-MM-DD
	Metric           string
	RealizationValue float64
	PlanningValue    float64
	Label            PerformanceLabel
}

func (r PerformanceResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"company":            r.Company,
		"period":             r.Period,
		"metric":             r.Metric,
		"realization_budget": jsonsafe.Float(r.RealizationValue),
		"planning_budget":    jsonsafe.Float(r.PlanningValue),
		"performance":        r.Label,
	})
}

// PerformanceReport is the payload of a revenue performance request.
type PerformanceReport struct {
	Status  ReportStatus
	Month   string
	Message string
	Results []PerformanceResult
}

// MarshalJSON omits results for error reports and writes [] for empty ones.
func (r PerformanceReport) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"status": r.Status,
	}
	if r.Month != "" {
		out["month"] = r.Month
	}
	if r.Message != "" {
		out["message"] = r.Message
	}
	if r.Status != ReportError {
		results := r.Results
		if results == nil {
			results = []PerformanceResult{}
		}
		out["results"] = results
	}
	return json.Marshal(out)
}
