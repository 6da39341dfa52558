package selectchart

// DefaultLineKeywords trigger a line chart; anything else gets bars.
var DefaultLineKeywords = []string{
	"compare", "comparison", "trend", "vs", "versus",
	"q1", "q2", "q3", "q4", "quarter", "growth",
}

type Config struct {
	LineKeywords []string
}

func LoadConfig() *Config {
	return &Config{
		LineKeywords: DefaultLineKeywords,
	}
}
