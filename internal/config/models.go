package config

import (
	"fmt"
	"strings"

	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/summarize"
	opconfig "summarize-pro/internal/pkg/config"
	pkgconfig "summarize-pro/pkg/config"
)

// ModelConfig controls the model cache and the summarization pipeline.
type ModelConfig struct {
	// MaxModelsInMemory bounds the number of resident model handles. Default: 3
	MaxModelsInMemory int

	// InstructionModel replaces the primary of the instruction summarizer (LLM_MODEL).
	InstructionModel string

	// CatalogPath is an optional YAML file overlaid on the built-in catalog.
	CatalogPath string

	// Parallelism is the number of chunks mapped concurrently. Default: 2
	Parallelism int
}

// LoadModelConfig reads the model configuration from the environment.
func LoadModelConfig() (*ModelConfig, error) {
	cfg := &ModelConfig{
		MaxModelsInMemory: pkgconfig.GetEnvInt("MAX_MODELS_IN_MEMORY", modelcache.DefaultCapacity),
		InstructionModel:  strings.TrimSpace(pkgconfig.GetEnvString("LLM_MODEL", "")),
		CatalogPath:       strings.TrimSpace(pkgconfig.GetEnvString("MODEL_CATALOG_PATH", "")),
		Parallelism:       pkgconfig.GetEnvInt("INFERENCE_PARALLELISM", summarize.DefaultParallelism),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *ModelConfig) Validate() error {
	if err := opconfig.ValidateIntRange(c.MaxModelsInMemory, 1, 32); err != nil {
		return fmt.Errorf("MAX_MODELS_IN_MEMORY: %w", err)
	}
	if err := opconfig.ValidateIntRange(c.Parallelism, 1, 64); err != nil {
		return fmt.Errorf("INFERENCE_PARALLELISM: %w", err)
	}
	return nil
}

// Catalog returns the built-in catalog, overlaid with CatalogPath when set.
func (c *ModelConfig) Catalog() (Catalog, error) {
	base := DefaultCatalog(c.InstructionModel)
	if c.CatalogPath == "" {
		if err := base.Validate(); err != nil {
			return Catalog{}, err
		}
		return base, nil
	}
	return LoadCatalog(c.CatalogPath, base)
}
