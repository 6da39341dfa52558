package extractintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/llm"
	"finsight/internal/common/logger"
	"finsight/internal/common/metrics"
	"finsight/internal/models"
)

const TaskType = "extract-intent"

// intentSchema checks key types only; every key is optional.
var intentSchema = gojsonschema.NewGoLoader(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"metrics":       stringList(),
		"companies":     stringList(),
		"periods":       stringList(),
		"is_comparison": map[string]interface{}{"type": []string{"boolean", "null"}},
		"ask_insights":  map[string]interface{}{"type": []string{"boolean", "null"}},
	},
})

func stringList() map[string]interface{} {
	return map[string]interface{}{
		"type":  []string{"array", "null"},
		"items": map[string]interface{}{"type": "string"},
	}
}

type Handler struct {
	config  *Config
	client  llm.Completer
	lookups Lookups
	logger  logger.Logger
}

func NewHandler(config *Config, client llm.Completer, lookups Lookups, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		client:  client,
		lookups: lookups,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute asks the model for the query's intent. Unusable model output falls back
// to an empty intent; only transport failures are returned as errors.
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

	raw, err := h.client.Complete(ctx, h.buildPrompt(input.Query))
	if err != nil {
		metrics.LLMCalls.WithLabelValues(TaskType, "error").Inc()
		h.logger.Error("model call failed", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("extract intent: %w", err)
	}
	metrics.LLMCalls.WithLabelValues(TaskType, "success").Inc()

	intent, reason := parseIntent(raw)
	if reason != "" {
		fallback := apperrors.NewIntentFallbackError(reason)
		metrics.IntentOutcomes.WithLabelValues(string(models.IntentFallback)).Inc()
		h.logger.Warn("intent fallback", map[string]interface{}{
			"errorCode":   fallback.Code,
			"error":       fallback.Error(),
			"responseLen": len(raw),
		})
		return &Output{Intent: models.EmptyIntent(), Outcome: models.FallbackOutcome(reason)}, nil
	}

	metrics.IntentOutcomes.WithLabelValues(string(models.IntentParsed)).Inc()
	h.logger.Info("intent parsed", map[string]interface{}{
		"metrics":      intent.Metrics,
		"companies":    intent.Companies,
		"periods":      intent.Periods,
		"isComparison": intent.IsComparison,
	})

	return &Output{Intent: intent, Outcome: models.ParsedOutcome()}, nil
}

// parseIntent returns the intent, or a non-empty reason when raw is unusable.
func parseIntent(raw string) (models.Intent, string) {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.Intent{}, fmt.Sprintf("invalid json: %v", err)
	}

	result, err := gojsonschema.Validate(intentSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return models.Intent{}, fmt.Sprintf("schema check: %v", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return models.Intent{}, fmt.Sprintf("schema violation: %s", strings.Join(errs, "; "))
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return models.Intent{}, fmt.Sprintf("decode intent: %v", err)
	}
	return intent.Normalize(), ""
}

func (h *Handler) buildPrompt(query string) string {
	var parts []string

	parts = append(parts, "You are a STRICT financial information extraction engine.")
	parts = append(parts, "")
	parts = append(parts, "METRICS = "+jsonList(h.lookups.Metrics()))
	parts = append(parts, "COMPANIES = "+jsonList(h.lookups.Companies()))
	parts = append(parts, "PERIODS = "+jsonList(h.lookups.Periods()))

	parts = append(parts, "\nReturn only JSON with:")
	parts = append(parts, "- metrics")
	parts = append(parts, "- companies")
	parts = append(parts, "- periods")
	parts = append(parts, "- is_comparison (true/false)")
	parts = append(parts, "- ask_insights (true/false)")

	parts = append(parts, fmt.Sprintf("\nUser query: %q", query))

	return strings.Join(parts, "\n")
}

func jsonList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}
