package renderchart

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"finsight/internal/common/artifacts"
	"finsight/internal/common/dataset"
	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/logger"
	"finsight/internal/common/metrics"
	"finsight/internal/models"
)

const TaskType = "render-chart"

type Handler struct {
	config *Config
	store  artifacts.Store
	logger logger.Logger
}

func NewHandler(config *Config, store artifacts.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute renders the records as a PNG and stores it under a fresh name.
// Empty input, or input without any realization value, produces no artifact.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	if len(input.Records) == 0 {
		return &Output{}, nil
	}

	png, ok, err := h.Render(input.Records, input.Kind)
	if err != nil {
		h.logger.Error("chart render failed", map[string]interface{}{
			"kind":  input.Kind,
			"error": err,
		})
		return nil, apperrors.NewChartRenderFailedError(string(input.Kind), err)
	}
	if !ok {
		h.logger.Info("nothing to plot", map[string]interface{}{"records": len(input.Records)})
		return &Output{}, nil
	}

	name := artifacts.NewName()
	if err := h.store.Save(ctx, name, png); err != nil {
		return nil, apperrors.NewChartRenderFailedError(string(input.Kind), fmt.Errorf("save chart: %w", err))
	}
	metrics.ChartsRendered.WithLabelValues(string(input.Kind)).Inc()

	h.logger.Info("chart rendered", map[string]interface{}{
		"name":  name,
		"kind":  input.Kind,
		"bytes": len(png),
	})

	return &Output{Artifact: &models.ChartArtifact{
		Name:        name,
		Kind:        input.Kind,
		ContentType: "image/png",
	}}, nil
}

// Render draws records as a PNG. ok is false when there is nothing to plot.
func (h *Handler) Render(records []models.Record, kind models.ChartKind) (png []byte, ok bool, err error) {
	sorted := sortByPeriod(records)

	var buf bytes.Buffer
	switch kind {
	case models.ChartLine:
		ch, ok := h.lineChart(sorted)
		if !ok {
			return nil, false, nil
		}
		err = ch.Render(chart.PNG, &buf)
	default:
		bc, ok := h.barChart(sorted)
		if !ok {
			return nil, false, nil
		}
		err = bc.Render(chart.PNG, &buf)
	}
	if err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

// sortByPeriod stable-sorts a copy of records chronologically.
func sortByPeriod(records []models.Record) []models.Record {
	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dataset.PeriodLess(sorted[i].Period, sorted[j].Period)
	})
	return sorted
}

// distinctPeriods returns periods in first-seen order.
func distinctPeriods(records []models.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Period]; ok {
			continue
		}
		seen[r.Period] = struct{}{}
		out = append(out, r.Period)
	}
	return out
}

func distinctCompanies(records []models.Record) []string {
	companies := make([]string, 0, len(records))
	for _, r := range records {
		companies = append(companies, r.Company)
	}
	slices.Sort(companies)
	return slices.Compact(companies)
}

func anyRealization(records []models.Record) bool {
	for _, r := range records {
		if r.HasRealization() {
			return true
		}
	}
	return false
}
