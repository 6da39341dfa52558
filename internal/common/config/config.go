// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Dataset       DatasetConfig       `mapstructure:"dataset"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Charts        ChartsConfig        `mapstructure:"charts"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // milliseconds
}

// DatasetConfig points at the workbook (or csv export) the questions are answered from.
type DatasetConfig struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// LLMConfig holds the Azure OpenAI deployment used by both model call sites.
type LLMConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// ChartsConfig selects where rendered charts are kept.
// Store is "filesystem" (Dir) or "redis"; entries expire after TTL in both.
type ChartsConfig struct {
	Store  string `mapstructure:"store"`
	Dir    string `mapstructure:"dir"`
	TTL    int    `mapstructure:"ttl"` // seconds
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LLMTimeout returns the per-call model timeout.
func (c LLMConfig) LLMTimeout() time.Duration {
	return GetDuration(c.Timeout)
}

// ChartTTL returns how long a stored chart stays retrievable.
func (c ChartsConfig) ChartTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
