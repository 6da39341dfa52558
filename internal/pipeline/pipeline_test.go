package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"finsight/internal/common/artifacts"
	"finsight/internal/common/dataset"
	"finsight/internal/common/logger"
	"finsight/internal/common/observability"
	"finsight/internal/models"
	renderchart "finsight/internal/workers/charts/render-chart"
	selectchart "finsight/internal/workers/charts/select-chart"
	extractintent "finsight/internal/workers/query/extract-intent"
	filterrecords "finsight/internal/workers/query/filter-records"
	synthesizeanswer "finsight/internal/workers/query/synthesize-answer"
)

// scriptedModel answers intent prompts and answer prompts with fixed text.
type scriptedModel struct {
	mu         sync.Mutex
	intent     string
	answer     string
	answerErr  error
	intentSeen int
	answerSeen int
}

func (m *scriptedModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.HasPrefix(prompt, "You are a STRICT") {
		m.intentSeen++
		return m.intent, nil
	}
	m.answerSeen++
	return m.answer, m.answerErr
}

func sampleStore() *dataset.Store {
	return dataset.NewStore([]models.Record{
		{Company: "Acme", Period: "2021-05", Metric: "Revenue", RealizationValue: 120, PlanningValue: 100, Unit: "USD"},
		{Company: "Beta", Period: "2021-05", Metric: "Revenue", RealizationValue: 80, PlanningValue: 100, Unit: "USD"},
		{Company: "Acme", Period: "2021-06", Metric: "Revenue", RealizationValue: 130, PlanningValue: math.NaN(), Unit: "USD"},
		{Company: "Acme", Period: "2021-05", Metric: "EBITDA", RealizationValue: 10, PlanningValue: 5, Unit: "USD"},
	})
}

func newPipeline(t *testing.T, model *scriptedModel, opts ...observability.Option) *Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := sampleStore()

	charts, err := artifacts.NewFileStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	opts = append(opts, observability.WithRegisterer(prometheus.NewRegistry()))
	obs := observability.New("finsight-test", opts...)
	t.Cleanup(obs.Shutdown)

	return New(store, Stages{
		Extract:    extractintent.NewHandler(&extractintent.Config{}, model, store, log),
		Filter:     filterrecords.NewHandler(filterrecords.LoadConfig(), log),
		Synthesize: synthesizeanswer.NewHandler(&synthesizeanswer.Config{}, model, log),
		Select:     selectchart.NewHandler(selectchart.LoadConfig(), log),
		Render:     renderchart.NewHandler(&renderchart.Config{Width: 400, Height: 300}, charts, log),
	}, obs, log)
}

func TestAsk_FullRun(t *testing.T) {
	model := &scriptedModel{
		intent: `{"metrics":["revenue"],"companies":["ACME"],"periods":[],"is_comparison":true,"ask_insights":false}`,
		answer: "Acme revenue grew from 120 to 130.",
	}

	result, err := newPipeline(t, model).Ask(context.Background(), "Acme revenue trend")
	require.NoError(t, err)

	assert.Equal(t, models.IntentParsed, result.Outcome.Kind)
	assert.Equal(t, []string{"revenue"}, result.Intent.Metrics)
	require.Len(t, result.Filtered, 2)
	assert.Equal(t, "2021-05", result.Filtered[0].Period)
	assert.Equal(t, "2021-06", result.Filtered[1].Period)
	assert.Equal(t, "Acme revenue grew from 120 to 130.", result.Answer)
	assert.Equal(t, models.ChartLine, result.ChartKind)
	require.NotNil(t, result.Chart)
	assert.True(t, strings.HasPrefix(result.Chart.URL(), models.ChartURLPrefix))
}

func TestAsk_LineChartOverOnePeriod(t *testing.T) {
	model := &scriptedModel{
		intent: `{"metrics":["Revenue"],"companies":["Beta"],"periods":["2021-05"],"is_comparison":true,"ask_insights":false}`,
		answer: "Beta revenue was 80 against a plan of 100.",
	}

	result, err := newPipeline(t, model).Ask(context.Background(), "Beta revenue vs plan for May 2021")
	require.NoError(t, err)

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, models.ChartLine, result.ChartKind)
	require.NotNil(t, result.Chart)
	assert.Equal(t, models.ChartLine, result.Chart.Kind)
	assert.Equal(t, "Beta revenue was 80 against a plan of 100.", result.Answer)
}

func TestAsk_IsIdempotent(t *testing.T) {
	model := &scriptedModel{
		intent: `{"metrics":["Revenue"],"companies":[],"periods":["2021-05"],"is_comparison":false,"ask_insights":false}`,
		answer: "Revenue was 120 for Acme and 80 for Beta.",
	}
	p := newPipeline(t, model)

	first, err := p.Ask(context.Background(), "revenue by company")
	require.NoError(t, err)
	second, err := p.Ask(context.Background(), "revenue by company")
	require.NoError(t, err)

	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, first.Outcome, second.Outcome)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.ChartKind, second.ChartKind)
	assert.Equal(t, models.ChartBar, first.ChartKind)
	require.Len(t, first.Filtered, len(second.Filtered))
	for i := range first.Filtered {
		assert.Equal(t, first.Filtered[i].Company, second.Filtered[i].Company)
		assert.Equal(t, first.Filtered[i].Period, second.Filtered[i].Period)
	}

	// Each run stores its own chart.
	require.NotNil(t, first.Chart)
	require.NotNil(t, second.Chart)
	assert.NotEqual(t, first.Chart.Name, second.Chart.Name)
}

func TestAsk_FallbackKeepsEveryRecord(t *testing.T) {
	model := &scriptedModel{intent: "```json\n{}\n```", answer: "No clear answer."}

	result, err := newPipeline(t, model).Ask(context.Background(), "tell me things")
	require.NoError(t, err)

	assert.True(t, result.Outcome.IsFallback())
	assert.Len(t, result.Filtered, sampleStore().Len())
	assert.Equal(t, "No clear answer.", result.Answer)
}

func TestAsk_NoMatchesHasNoChart(t *testing.T) {
	model := &scriptedModel{
		intent: `{"metrics":["Headcount"],"companies":[],"periods":[],"is_comparison":false,"ask_insights":false}`,
		answer: "There is no headcount data.",
	}

	result, err := newPipeline(t, model).Ask(context.Background(), "headcount")
	require.NoError(t, err)

	assert.Empty(t, result.Filtered)
	assert.NotNil(t, result.Filtered)
	assert.Nil(t, result.Chart)
}

func TestAsk_StageErrorAborts(t *testing.T) {
	boom := errors.New("upstream unavailable")
	model := &scriptedModel{intent: `{}`, answerErr: boom}
	recorder := tracetest.NewSpanRecorder()

	_, err := newPipeline(t, model, observability.WithSpanProcessor(recorder)).Ask(context.Background(), "revenue")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, model.answerSeen)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	// The run stops after the failing stage.
	assert.Equal(t, []string{"extract-intent", "filter-records", "synthesize-answer", "pipeline.ask"}, names)
}
