package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline holds the generation pipeline tunables. Values can come from a
// YAML file (PIPELINE_CONFIG) and are then overridden by env vars.
type Pipeline struct {
	Concurrency          int           `yaml:"concurrency"`
	Timeout              time.Duration `yaml:"timeout"`
	RetrievalFanOut      int           `yaml:"retrieval_fan_out"`
	RetrievalTopK        int           `yaml:"retrieval_top_k"`
	SynthMaxAttempts     int           `yaml:"synth_max_attempts"`
	SynthMaxTermQueries  int           `yaml:"synth_max_term_queries"`
	TranslateMaxAttempts int           `yaml:"translate_max_attempts"`
	RenderMaxAttempts    int           `yaml:"render_max_attempts"`
	PDFLatexPath         string        `yaml:"pdflatex_path"`
	SofficePath          string        `yaml:"soffice_path"`
}

// DefaultPipeline returns the built-in tunables.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Concurrency:          4,
		Timeout:              5 * time.Minute,
		RetrievalFanOut:      5,
		RetrievalTopK:        4,
		SynthMaxAttempts:     3,
		SynthMaxTermQueries:  10,
		TranslateMaxAttempts: 3,
		RenderMaxAttempts:    2,
		PDFLatexPath:         "pdflatex",
		SofficePath:          "soffice",
	}
}

// LoadPipelineFile overlays the YAML file at path onto base. Keys absent from
// the file keep the base value.
func LoadPipelineFile(path string, base Pipeline) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read pipeline config: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse pipeline config: %w", err)
	}
	return out.withFloor(base), nil
}

func pipelineFromEnv(p Pipeline) Pipeline {
	p.Concurrency = getEnvInt("GENERATION_CONCURRENCY", p.Concurrency)
	p.Timeout = getEnvDuration("GENERATION_TIMEOUT", p.Timeout)
	p.RetrievalFanOut = getEnvInt("RETRIEVAL_FAN_OUT", p.RetrievalFanOut)
	p.RetrievalTopK = getEnvInt("RETRIEVAL_TOP_K", p.RetrievalTopK)
	p.SynthMaxAttempts = getEnvInt("SYNTH_MAX_ATTEMPTS", p.SynthMaxAttempts)
	p.SynthMaxTermQueries = getEnvInt("SYNTH_MAX_TERM_QUERIES", p.SynthMaxTermQueries)
	p.TranslateMaxAttempts = getEnvInt("TRANSLATE_MAX_ATTEMPTS", p.TranslateMaxAttempts)
	p.RenderMaxAttempts = getEnvInt("RENDER_MAX_ATTEMPTS", p.RenderMaxAttempts)
	p.PDFLatexPath = getEnv("PDFLATEX_PATH", p.PDFLatexPath)
	p.SofficePath = getEnv("SOFFICE_PATH", p.SofficePath)
	return p
}

// withFloor replaces non-positive values with the ones from def.
func (p Pipeline) withFloor(def Pipeline) Pipeline {
	if p.Concurrency <= 0 {
		p.Concurrency = def.Concurrency
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	if p.RetrievalFanOut <= 0 {
		p.RetrievalFanOut = def.RetrievalFanOut
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = def.RetrievalTopK
	}
	if p.SynthMaxAttempts <= 0 {
		p.SynthMaxAttempts = def.SynthMaxAttempts
	}
	if p.SynthMaxTermQueries <= 0 {
		p.SynthMaxTermQueries = def.SynthMaxTermQueries
	}
	if p.TranslateMaxAttempts <= 0 {
		p.TranslateMaxAttempts = def.TranslateMaxAttempts
	}
	if p.RenderMaxAttempts <= 0 {
		p.RenderMaxAttempts = def.RenderMaxAttempts
	}
	if p.PDFLatexPath == "" {
		p.PDFLatexPath = def.PDFLatexPath
	}
	if p.SofficePath == "" {
		p.SofficePath = def.SofficePath
	}
	return p
}
