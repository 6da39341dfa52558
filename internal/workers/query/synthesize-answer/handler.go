package synthesizeanswer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/common/llm"
	"finsight/internal/common/logger"
	"finsight/internal/common/metrics"
	"finsight/internal/models"
)

const TaskType = "synthesize-answer"

type Handler struct {
	config *Config
	client llm.Completer
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Completer, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute returns the model's answer text verbatim.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	data, err := SerializeRecords(input.Records)
	if err != nil {
		return nil, fmt.Errorf("serialize records: %w", err)
	}

	answer, err := h.client.Complete(ctx, buildPrompt(input.Query, data))
	if err != nil {
		metrics.LLMCalls.WithLabelValues(TaskType, "error").Inc()
		h.logger.Error("model call failed", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}
	metrics.LLMCalls.WithLabelValues(TaskType, "success").Inc()

	h.logger.Info("answer generated", map[string]interface{}{
		"records":   len(input.Records),
		"answerLen": len(answer),
	})

	return &Output{Answer: answer}, nil
}

type recordLine struct {
	Company     string          `json:"company"`
	Period      string          `json:"period"`
	Metric      string          `json:"metric"`
	Realization json.RawMessage `json:"realization_budget"`
	Planning    json.RawMessage `json:"planning_budget"`
	Unit        string          `json:"unit"`
}

// SerializeRecords writes one compact JSON object per record, one per line.
// Numbers keep their shortest exact decimal form and NaN becomes null.
func SerializeRecords(records []models.Record) (string, error) {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(recordLine{
			Company:     r.Company,
			Period:      r.Period,
			Metric:      r.Metric,
			Realization: exactNumber(r.RealizationValue),
			Planning:    exactNumber(r.PlanningValue),
			Unit:        r.Unit,
		}); err != nil {
			return "", err
		}
		lines = append(lines, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(lines, "\n"), nil
}

func exactNumber(f float64) json.RawMessage {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.RawMessage("null")
	}
	return json.RawMessage(decimal.NewFromFloat(f).String())
}

func buildPrompt(query, data string) string {
	var parts []string

	parts = append(parts, "You are a financial analyst. SHORT answers only.")
	parts = append(parts, "\nSTRUCTURED DATA:")
	parts = append(parts, data)
	parts = append(parts, "\nUSER QUESTION:")
	parts = append(parts, query)
	parts = append(parts, "\nRules:")
	parts = append(parts, "- Only 1-2 sentences")
	parts = append(parts, "- No lists, no details")
	parts = append(parts, "- Use only the numbers given in the data above")
	parts = append(parts, "- Copy numbers EXACTLY from data: no rounding, no recomputation")

	return strings.Join(parts, "\n")
}
