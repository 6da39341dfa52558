// Package pipeline answers a natural-language question over the dataset by
// running the query and chart stages in order.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finsight/internal/common/logger"
	"finsight/internal/common/metrics"
	"finsight/internal/common/observability"
	"finsight/internal/models"
	renderchart "finsight/internal/workers/charts/render-chart"
	selectchart "finsight/internal/workers/charts/select-chart"
	extractintent "finsight/internal/workers/query/extract-intent"
	filterrecords "finsight/internal/workers/query/filter-records"
	synthesizeanswer "finsight/internal/workers/query/synthesize-answer"
)

// Dataset is the read side of the dataset store the pipeline needs.
type Dataset interface {
	Records() []models.Record
}

// Stages holds one handler per step.
type Stages struct {
	Extract    *extractintent.Handler
	Filter     *filterrecords.Handler
	Synthesize *synthesizeanswer.Handler
	Select     *selectchart.Handler
	Render     *renderchart.Handler
}

// Result is everything one question produces.
type Result struct {
	Intent    models.Intent
	Outcome   models.IntentOutcome
	Filtered  []models.Record
	Answer    string
	ChartKind models.ChartKind
	Chart     *models.ChartArtifact
}

type Pipeline struct {
	data   Dataset
	stages Stages
	obs    *observability.Observability
	logger logger.Logger
}

func New(data Dataset, stages Stages, obs *observability.Observability, log logger.Logger) *Pipeline {
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Pipeline{
		data:   data,
		stages: stages,
		obs:    obs,
		logger: log.Named("pipeline"),
	}
}

// Ask runs extract, filter, synthesize, select and render in that order.
// The first stage error aborts the run and is returned unchanged.
func (p *Pipeline) Ask(ctx context.Context, query string) (result *Result, err error) {
	start := time.Now()
	ctx, span := p.obs.StartSpan(ctx, "pipeline.ask")
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.QueriesTotal.WithLabelValues(status).Inc()
		p.obs.RecordQuery(ctx, status)
		p.obs.RecordQueryDuration(ctx, time.Since(start), status)
		span.End()
	}()

	var intentOut *extractintent.Output
	err = p.stage(ctx, extractintent.TaskType, func(ctx context.Context) (err error) {
		intentOut, err = p.stages.Extract.Execute(ctx, &extractintent.Input{Query: query})
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("intent.outcome", string(intentOut.Outcome.Kind)))

	var filterOut *filterrecords.Output
	err = p.stage(ctx, filterrecords.TaskType, func(ctx context.Context) (err error) {
		filterOut, err = p.stages.Filter.Execute(ctx, &filterrecords.Input{
			Intent:  intentOut.Intent,
			Records: p.data.Records(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var answerOut *synthesizeanswer.Output
	err = p.stage(ctx, synthesizeanswer.TaskType, func(ctx context.Context) (err error) {
		answerOut, err = p.stages.Synthesize.Execute(ctx, &synthesizeanswer.Input{
			Query:   query,
			Records: filterOut.Records,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var selectOut *selectchart.Output
	err = p.stage(ctx, selectchart.TaskType, func(ctx context.Context) (err error) {
		selectOut, err = p.stages.Select.Execute(ctx, &selectchart.Input{Query: query})
		return err
	})
	if err != nil {
		return nil, err
	}

	var renderOut *renderchart.Output
	err = p.stage(ctx, renderchart.TaskType, func(ctx context.Context) (err error) {
		renderOut, err = p.stages.Render.Execute(ctx, &renderchart.Input{
			Records: filterOut.Records,
			Kind:    selectOut.Kind,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("question answered", map[string]interface{}{
		"outcome":   intentOut.Outcome.Kind,
		"records":   len(filterOut.Records),
		"chartKind": selectOut.Kind,
		"hasChart":  renderOut.Artifact != nil,
		"duration":  time.Since(start).String(),
	})

	return &Result{
		Intent:    intentOut.Intent,
		Outcome:   intentOut.Outcome,
		Filtered:  filterOut.Records,
		Answer:    answerOut.Answer,
		ChartKind: selectOut.Kind,
		Chart:     renderOut.Artifact,
	}, nil
}

// stage runs fn inside a child span named after the stage.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.obs.StartSpan(ctx, name, trace.WithAttributes(attribute.String("stage", name)))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
