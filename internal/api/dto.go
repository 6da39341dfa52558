package api

import (
	"finsight/internal/common/validation"
	"finsight/internal/models"
)

// AskResponse is the body of a successful /ask call.
type AskResponse struct {
	Answer        string           `json:"answer"`
	Understanding models.Intent    `json:"understanding"`
	Filtered      []interface{}    `json:"filtered"`
	ChartType     models.ChartKind `json:"chart_type"`
	ChartURL      *string          `json:"chart_url"`
}

// LookupsResponse lists the values questions can refer to.
type LookupsResponse struct {
	Metrics   []string `json:"metrics"`
	Companies []string `json:"companies"`
	Periods   []string `json:"periods"`
}

// ValidationErrorResponse is returned with 400 when a request body is rejected.
type ValidationErrorResponse struct {
	Answer string                       `json:"answer"`
	Error  string                       `json:"error"`
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Error  string `json:"error,omitempty"`
}
