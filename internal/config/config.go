package config

// Config represents the top-level application configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Store    StoreConfig    `toml:"store"`
	Output   OutputConfig   `toml:"output"`
	Audit    AuditConfig    `toml:"audit"`
	GitHub   GitHubConfig   `toml:"github"`
}

// ProviderConfig holds settings for text-generation provider selection.
type ProviderConfig struct {
	Default   string                   `toml:"default"`
	Model     string                   `toml:"model"`
	Anthropic AnthropicProviderConfig  `toml:"anthropic"`
	OpenAI    []OpenAICompatibleConfig `toml:"openai_compatible"`
	Ollama    OllamaProviderConfig     `toml:"ollama"`
}

// AnthropicProviderConfig holds Anthropic-specific provider settings.
type AnthropicProviderConfig struct {
	APIKeySource string `toml:"api_key_source"`
	APIKey       string `toml:"api_key"`
}

// OpenAICompatibleConfig holds settings for an OpenAI-compatible provider.
type OpenAICompatibleConfig struct {
	Name         string            `toml:"name"`
	BaseURL      string            `toml:"base_url"`
	APIKeySource string            `toml:"api_key_source"`
	APIKey       string            `toml:"api_key"`
	ExtraHeaders map[string]string `toml:"extra_headers"`
}

// OllamaProviderConfig holds settings for a local Ollama server.
type OllamaProviderConfig struct {
	BaseURL string `toml:"base_url"`
}

// PipelineConfig holds quality-gate and generation settings.
type PipelineConfig struct {
	// QualityThreshold is the minimum accepted evaluation score, 0-10.
	QualityThreshold float64 `toml:"quality_threshold"`
	// MaxRetries bounds how many times generation is re-run after the
	// initial attempt fails the gate.
	MaxRetries int `toml:"max_retries"`
	// StageTimeoutSecs caps a single generation call.
	StageTimeoutSecs int `toml:"stage_timeout_secs"`
	// RequestsPerMinute rate-limits collaborator calls. Zero disables.
	RequestsPerMinute int `toml:"requests_per_minute"`
	// MaxFileKB truncates source files above this size before parsing.
	MaxFileKB int `toml:"max_file_kb"`
}

// StoreConfig locates the shared-store database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// OutputConfig controls where the documentation bundle is written.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// AuditConfig holds the optional Postgres audit sink. An empty DSN disables it.
type AuditConfig struct {
	PostgresDSN string `toml:"postgres_dsn"`
}

// GitHubConfig holds optional GitHub API access for remote tree metadata.
type GitHubConfig struct {
	TokenSource string `toml:"token_source"`
	Token       string `toml:"token"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Default: "anthropic",
			Model:   "claude-sonnet-4-5",
			Anthropic: AnthropicProviderConfig{
				APIKeySource: "env",
			},
			Ollama: OllamaProviderConfig{
				BaseURL: "http://localhost:11434",
			},
		},
		Pipeline: PipelineConfig{
			QualityThreshold:  7.0,
			MaxRetries:        2,
			StageTimeoutSecs:  120,
			RequestsPerMinute: 30,
			MaxFileKB:         512,
		},
		Store: StoreConfig{
			Path: "docpipe.db",
		},
		Output: OutputConfig{
			Dir: "generated_docs",
		},
		GitHub: GitHubConfig{
			TokenSource: "env",
		},
	}
}
