// internal/workers/query/extract-intent/config.go
package extractintent

import "time"

type Config struct {
	// Timeout bounds the whole stage; zero leaves it to the caller's context.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
