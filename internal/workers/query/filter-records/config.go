package filterrecords

type Config struct {
	// ApplyPeriods also restricts rows to the intent's periods. Off by default:
	// answers are built from every period of the matched metrics and companies.
	ApplyPeriods bool
}

func LoadConfig() *Config {
	return &Config{}
}
