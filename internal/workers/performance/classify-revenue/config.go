package classifyrevenue

import "finsight/internal/common/dataset"

type Config struct {
	// Source is reloaded on every request so edits to the file show up without a restart.
	Source dataset.Source
}

func LoadConfig(src dataset.Source) *Config {
	return &Config{Source: src}
}
