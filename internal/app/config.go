package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SpecPath      string // generator spec document
	TemplatesPath string // template source tree

	Seed      int64
	Params    map[string]any // spec parameter overrides
	FullTruth bool           // include ground truth and mapping in output

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpecPath == "" {
		return nil, errors.New("SpecPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
