package filterrecords

import (
	"context"
	"strings"

	"finsight/internal/common/logger"
	"finsight/internal/models"
)

const TaskType = "filter-records"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute keeps the records matching the intent, in input order.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	filtered := Filter(input.Records, input.Intent, h.config.ApplyPeriods)

	h.logger.Debug("records filtered", map[string]interface{}{
		"total":    len(input.Records),
		"filtered": len(filtered),
	})

	return &Output{Records: filtered}, nil
}

// Filter matches metrics and companies case-insensitively. An empty list matches everything.
func Filter(records []models.Record, intent models.Intent, applyPeriods bool) []models.Record {
	metrics := lowerSet(intent.Metrics)
	companies := lowerSet(intent.Companies)

	var periods map[string]struct{}
	if applyPeriods {
		periods = lowerSet(intent.Periods)
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !matches(metrics, r.Metric) || !matches(companies, r.Company) || !matches(periods, r.Period) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(set map[string]struct{}, value string) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[strings.ToLower(value)]
	return ok
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
