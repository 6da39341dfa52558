package classifyrevenue

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/common/dataset"
	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/logger"
	"finsight/internal/common/metrics"
	"finsight/internal/models"
)

const TaskType = "classify-revenue"

const (
	invalidMonthMessage = "Invalid month format. Use 'YYYY-MM' or 'Month YYYY'."
	resultPeriodLayout  = "2006-01-02"
)

// Loader returns a freshly read dataset.
type Loader func() (*dataset.Store, error)

type Handler struct {
	config *Config
	load   Loader
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		load:   config.Source.Load,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// WithLoader replaces the dataset loader.
func (h *Handler) WithLoader(load Loader) *Handler {
	h.load = load
	return h
}

// Execute labels every revenue row of the requested month against its plan.
// A bad month is reported in the payload; a dataset that cannot be read is an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	store, err := h.load()
	if err != nil {
		metrics.PerformanceReports.WithLabelValues("load_failed").Inc()
		h.logger.Error("dataset reload failed", map[string]interface{}{
			"path":  h.config.Source.Path,
			"error": err,
		})
		return nil, err
	}

	report := Classify(store.Records(), input.Month)
	metrics.PerformanceReports.WithLabelValues(string(report.Status)).Inc()

	if report.Status == models.ReportError {
		invalid := apperrors.NewInvalidMonthFormatError(input.Month)
		h.logger.Warn("invalid month", map[string]interface{}{
			"errorCode": invalid.Code,
			"error":     invalid.Error(),
		})
		return &Output{Report: report}, nil
	}

	h.logger.Info("revenue performance classified", map[string]interface{}{
		"month":   input.Month,
		"status":  report.Status,
		"results": len(report.Results),
	})

	return &Output{Report: report}, nil
}

// Classify builds the report for month over records.
func Classify(records []models.Record, month string) models.PerformanceReport {
	target, err := dataset.ParsePeriod(month)
	if err != nil {
		return models.PerformanceReport{
			Status:  models.ReportError,
			Message: invalidMonthMessage,
		}
	}

	results := []models.PerformanceResult{}
	for _, r := range records {
		if !strings.EqualFold(strings.TrimSpace(r.Metric), models.RevenueMetric) {
			continue
		}
		period, err := dataset.ParsePeriod(r.Period)
		if err != nil || !dataset.SameMonth(period, target) {
			continue
		}
		results = append(results, models.PerformanceResult{
			Company:          r.Company,
			Period:           period.Format(resultPeriodLayout),
			Metric:           models.RevenueMetric,
			RealizationValue: r.RealizationValue,
			PlanningValue:    r.PlanningValue,
			Label:            label(r.RealizationValue, r.PlanningValue),
		})
	}

	if len(results) == 0 {
		return models.PerformanceReport{
			Status:  models.ReportNoData,
			Message: fmt.Sprintf("No Revenue data found for %s.", month),
			Results: results,
		}
	}

	return models.PerformanceReport{
		Status:  models.ReportSuccess,
		Month:   month,
		Results: results,
	}
}

// label compares exactly; a missing value on either side counts as met_target.
func label(realization, planning float64) models.PerformanceLabel {
	if !finite(realization) || !finite(planning) {
		return models.MetTarget
	}
	switch decimal.NewFromFloat(realization).Cmp(decimal.NewFromFloat(planning)) {
	case 1:
		return models.Overperforming
	case -1:
		return models.Underperforming
	default:
		return models.MetTarget
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
