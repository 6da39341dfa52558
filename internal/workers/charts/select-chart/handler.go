package selectchart

import (
	"context"
	"strings"

	"finsight/internal/common/logger"
	"finsight/internal/models"
)

const TaskType = "select-chart"

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

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	kind := Select(input.Query, h.config.LineKeywords)
	h.logger.Debug("chart kind selected", map[string]interface{}{"kind": kind})
	return &Output{Kind: kind}, nil
}

// Select returns line when the lower-cased query contains any keyword as a substring.
func Select(query string, keywords []string) models.ChartKind {
	q := strings.ToLower(query)
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return models.ChartLine
		}
	}
	return models.ChartBar
}
