package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/inference"
	"summarize-pro/internal/modelcache"
	"summarize-pro/internal/summarize"
)

// Model keys known to the services. The catalog may add more.
const (
	KeyTextSummarizer         = "text-summarizer"
	KeyInstructionSummarizer  = "instruction-summarizer"
	KeyLongSummarizer         = "long-summarizer"
	KeyMultilingualSummarizer = "multilingual-summarizer"
	KeyQA                     = "qa"
	KeyMultilingualQA         = "multilingual-qa"
	KeySentiment              = "sentiment"
)

// DefaultInstructionModel is used for the instruction summarizer when LLM_MODEL is unset.
const DefaultInstructionModel = "google/flan-t5-base"

// requiredKeys must be present in every catalog; the Q&A and analysis services look
// them up directly.
var requiredKeys = []string{KeyQA, KeyMultilingualQA, KeySentiment}

// ModelEntry is the catalog form of a modelcache.LoadSpec.
type ModelEntry struct {
	Task      inference.TaskKind `yaml:"task"`
	Primary   string             `yaml:"primary"`
	Fallbacks []string           `yaml:"fallbacks,omitempty"`
}

// ClassEntry binds a content class to its model keys and chunk window.
type ClassEntry struct {
	Model            string `yaml:"model"`
	InstructionModel string `yaml:"instruction_model,omitempty"`
	Window           int    `yaml:"window"`
	Overlap          int    `yaml:"overlap"`
}

// Catalog lists every loadable model and the per content class configuration.
//
// Example file:
//
//	models:
//	  text-summarizer:
//	    task: summarization
//	    primary: openai:gpt-4o-mini
//	    fallbacks: [sshleifer/distilbart-cnn-12-6]
//	classes:
//	  document:
//	    model: text-summarizer
//	    window: 2000
//	    overlap: 200
type Catalog struct {
	Models  map[string]ModelEntry              `yaml:"models"`
	Classes map[entity.ContentClass]ClassEntry `yaml:"classes"`
}

// DefaultCatalog returns the built-in catalog. instructionModel replaces the primary
// identifier of the instruction summarizer when non-empty.
func DefaultCatalog(instructionModel string) Catalog {
	instructionModel = strings.TrimSpace(instructionModel)
	if instructionModel == "" {
		instructionModel = DefaultInstructionModel
	}

	return Catalog{
		Models: map[string]ModelEntry{
			KeyTextSummarizer: {
				Task:      inference.TaskSummarization,
				Primary:   "sshleifer/distilbart-cnn-12-6",
				Fallbacks: []string{"facebook/bart-base"},
			},
			KeyInstructionSummarizer: {
				Task:      inference.TaskText2Text,
				Primary:   instructionModel,
				Fallbacks: []string{"google/flan-t5-small", "facebook/bart-base", "sshleifer/distilbart-cnn-12-6"},
			},
			KeyLongSummarizer: {
				Task:      inference.TaskSummarization,
				Primary:   "google/long-t5-tglobal-base",
				Fallbacks: []string{"facebook/bart-large-cnn"},
			},
			KeyMultilingualSummarizer: {
				Task:      inference.TaskSummarization,
				Primary:   "facebook/mbart-large-50-many-to-many-mmt",
				Fallbacks: []string{"facebook/bart-large-cnn"},
			},
			KeyQA: {
				Task:      inference.TaskQuestionAnswering,
				Primary:   "deepset/roberta-base-squad2",
				Fallbacks: []string{"distilbert-base-cased-distilled-squad"},
			},
			KeyMultilingualQA: {
				Task:      inference.TaskQuestionAnswering,
				Primary:   "deepset/xlm-roberta-base-squad2",
				Fallbacks: []string{"deepset/roberta-base-squad2"},
			},
			KeySentiment: {
				Task:      inference.TaskSentiment,
				Primary:   "cardiffnlp/twitter-roberta-base-sentiment-latest",
				Fallbacks: []string{"distilbert-base-uncased-finetuned-sst-2-english"},
			},
		},
		Classes: map[entity.ContentClass]ClassEntry{
			entity.ClassText:         {Model: KeyTextSummarizer, InstructionModel: KeyInstructionSummarizer, Window: 1200, Overlap: 150},
			entity.ClassDocument:     {Model: KeyTextSummarizer, Window: 1600, Overlap: 180},
			entity.ClassURL:          {Model: KeyTextSummarizer, Window: 1200, Overlap: 150},
			entity.ClassTranscript:   {Model: KeyLongSummarizer, Window: 1500, Overlap: 180},
			entity.ClassMultilingual: {Model: KeyMultilingualSummarizer, Window: 1000, Overlap: 120},
		},
	}
}

// LoadCatalog reads a YAML catalog from path and overlays it on base. Models and
// classes in the file replace the base entries with the same key.
// The path parameter is expected to come from a trusted source (environment or CLI flag).
func LoadCatalog(path string, base Catalog) (Catalog, error) {
	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read model catalog: %w", err)
	}

	var overlay Catalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse model catalog: %w", err)
	}

	merged := base.clone()
	for key, m := range overlay.Models {
		merged.Models[key] = m
	}
	for class, c := range overlay.Classes {
		merged.Classes[class] = c
	}

	if err := merged.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("model catalog validation failed: %w", err)
	}
	return merged, nil
}

func (c Catalog) clone() Catalog {
	out := Catalog{
		Models:  make(map[string]ModelEntry, len(c.Models)),
		Classes: make(map[entity.ContentClass]ClassEntry, len(c.Classes)),
	}
	for k, v := range c.Models {
		v.Fallbacks = append([]string(nil), v.Fallbacks...)
		out.Models[k] = v
	}
	for k, v := range c.Classes {
		out.Classes[k] = v
	}
	return out
}

// Validate checks every model entry, every class binding and that the keys used by
// the Q&A and analysis services exist.
func (c Catalog) Validate() error {
	for _, key := range c.modelKeys() {
		if err := c.spec(key).Validate(); err != nil {
			return fmt.Errorf("model %q: %w", key, err)
		}
	}
	for _, key := range requiredKeys {
		if _, ok := c.Models[key]; !ok {
			return fmt.Errorf("model %q is required", key)
		}
	}

	for _, class := range entity.ContentClasses {
		if _, ok := c.Classes[class]; !ok {
			return fmt.Errorf("content class %q is not configured", class)
		}
	}
	for class, entry := range c.Classes {
		if !class.IsValid() {
			return fmt.Errorf("unknown content class %q", class)
		}
		if err := entry.classConfig().Validate(); err != nil {
			return fmt.Errorf("content class %q: %w", class, err)
		}
		for _, key := range []string{entry.Model, entry.InstructionModel} {
			if key == "" {
				continue
			}
			if _, ok := c.Models[key]; !ok {
				return fmt.Errorf("content class %q references unknown model %q", class, key)
			}
		}
	}
	return nil
}

// LoadSpecs converts the model entries for the model cache.
func (c Catalog) LoadSpecs() map[string]modelcache.LoadSpec {
	specs := make(map[string]modelcache.LoadSpec, len(c.Models))
	for key := range c.Models {
		specs[key] = c.spec(key)
	}
	return specs
}

// ClassConfigs converts the class entries for the summarization pipeline.
func (c Catalog) ClassConfigs() map[entity.ContentClass]summarize.ClassConfig {
	out := make(map[entity.ContentClass]summarize.ClassConfig, len(c.Classes))
	for class, entry := range c.Classes {
		out[class] = entry.classConfig()
	}
	return out
}

func (c Catalog) spec(key string) modelcache.LoadSpec {
	m := c.Models[key]
	return modelcache.LoadSpec{
		Task:      m.Task,
		Primary:   m.Primary,
		Fallbacks: append([]string(nil), m.Fallbacks...),
	}
}

func (c Catalog) modelKeys() []string {
	keys := make([]string, 0, len(c.Models))
	for k := range c.Models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e ClassEntry) classConfig() summarize.ClassConfig {
	return summarize.ClassConfig{
		ModelKey:            e.Model,
		InstructionModelKey: e.InstructionModel,
		Window:              e.Window,
		Overlap:             e.Overlap,
	}
}
