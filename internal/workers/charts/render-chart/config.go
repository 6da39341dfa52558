// internal/workers/charts/render-chart/config.go
package renderchart

type Config struct {
	Width  int
	Height int
}

func LoadConfig() *Config {
	return &Config{
		Width:  1000,
		Height: 500,
	}
}
