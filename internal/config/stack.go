package config

import (
	"context"
	"errors"

	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/summarize"
)

// Models is the model cache and summarization pipeline built from the environment.
type Models struct {
	Cache          *modelcache.Cache
	Pipeline       *summarize.Pipeline
	DefaultBackend string
	Backends       []string

	closeBackends func() error
}

// LoadModels reads the model, catalog and inference configuration and builds the
// cache and pipeline on top of every backend.
func LoadModels() (*Models, error) {
	modelCfg, err := LoadModelConfig()
	if err != nil {
		return nil, err
	}
	catalog, err := modelCfg.Catalog()
	if err != nil {
		return nil, err
	}
	infCfg, err := LoadInferenceConfig()
	if err != nil {
		return nil, err
	}
	registry, closeBackends, err := infCfg.NewRegistry()
	if err != nil {
		return nil, err
	}

	cache, err := modelcache.New(registry, catalog.LoadSpecs(), modelCfg.MaxModelsInMemory,
		modelcache.WithMetrics(modelcache.PrometheusRecorder{}))
	if err != nil {
		return nil, errors.Join(err, closeBackends())
	}
	pipeline, err := summarize.NewPipeline(cache, catalog.ClassConfigs(),
		summarize.WithParallelism(modelCfg.Parallelism))
	if err != nil {
		return nil, errors.Join(err, closeBackends())
	}

	return &Models{
		Cache:          cache,
		Pipeline:       pipeline,
		DefaultBackend: infCfg.DefaultBackend,
		Backends:       registry.Backends(),
		closeBackends:  closeBackends,
	}, nil
}

// Close releases every resident model and the backend connections.
func (m *Models) Close(ctx context.Context) error {
	m.Cache.Clear(ctx)
	return m.closeBackends()
}
