// Package app assembles the service from configuration.
package app

import (
	"io"
	"net/http"

	"finsight/internal/api"
	"finsight/internal/common/artifacts"
	"finsight/internal/common/config"
	"finsight/internal/common/dataset"
	"finsight/internal/common/llm"
	"finsight/internal/common/logger"
	"finsight/internal/common/observability"
	"finsight/internal/pipeline"
	renderchart "finsight/internal/workers/charts/render-chart"
	selectchart "finsight/internal/workers/charts/select-chart"
	classifyrevenue "finsight/internal/workers/performance/classify-revenue"
	extractintent "finsight/internal/workers/query/extract-intent"
	filterrecords "finsight/internal/workers/query/filter-records"
	synthesizeanswer "finsight/internal/workers/query/synthesize-answer"
)

type App struct {
	Router   http.Handler
	Dataset  *dataset.Store
	Pipeline *pipeline.Pipeline
	charts   artifacts.Store
}

// New loads the dataset, opens the chart store and wires every stage behind the router.
func New(cfg *config.Config, log logger.Logger, obs *observability.Observability) (*App, error) {
	src := dataset.Source{Path: cfg.Dataset.Path, Sheet: cfg.Dataset.Sheet}
	store, err := dataset.Load(src)
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", map[string]interface{}{
		"path":      src.Path,
		"records":   store.Len(),
		"companies": len(store.Companies()),
		"metrics":   len(store.Metrics()),
	})

	charts, err := artifacts.New(cfg.Charts, cfg.Redis)
	if err != nil {
		return nil, err
	}

	model := llm.NewClient(llm.ConfigFrom(cfg.LLM), log)
	stageTimeout := cfg.LLM.LLMTimeout()

	p := pipeline.New(store, pipeline.Stages{
		Extract:    extractintent.NewHandler(&extractintent.Config{Timeout: stageTimeout}, model, store, log),
		Filter:     filterrecords.NewHandler(filterrecords.LoadConfig(), log),
		Synthesize: synthesizeanswer.NewHandler(&synthesizeanswer.Config{Timeout: stageTimeout}, model, log),
		Select:     selectchart.NewHandler(selectchart.LoadConfig(), log),
		Render: renderchart.NewHandler(&renderchart.Config{
			Width:  cfg.Charts.Width,
			Height: cfg.Charts.Height,
		}, charts, log),
	}, obs, log)

	handler := api.NewHandler(api.Deps{
		Asker:      p,
		Classifier: classifyrevenue.NewHandler(classifyrevenue.LoadConfig(src), log),
		Lookups:    store,
		Charts:     charts,
	}, log)

	return &App{
		Router:   api.NewRouter(handler, cfg.Server.AllowedOrigins),
		Dataset:  store,
		Pipeline: p,
		charts:   charts,
	}, nil
}

// Close releases the chart store connection, if it holds one.
func (a *App) Close() error {
	if closer, ok := a.charts.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
