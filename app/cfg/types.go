package cfg

type Cfg struct {
	// Application configuration
	Port         string
	BaseUrl      string
	SourcesFile  string
	CacheTTL     int // seconds
	FetchTimeout int // seconds

	// Upstream access
	UserAgent string

	// Client configuration passthrough
	GenAIAPIKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
