package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application configuration. Every field can be set from the
// environment; a YAML file pointed to by CONFIG_PATH is read first and the
// environment overrides it.
type Config struct {
	Env       string `yaml:"env" env:"APP_ENV" env-default:"local"`
	Port      string `yaml:"port" env:"PORT" env-default:"3000"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR" env-default:"public"`

	Upstream Upstream `yaml:"upstream"`
	Retry    Retry    `yaml:"retry"`
	Coach    Coach    `yaml:"coach"`
}

// Upstream configures the external chat-completion endpoint.
type Upstream struct {
	URL         string        `yaml:"url" env:"ARK_API_URL" env-default:"https://ark.cn-beijing.volces.com/api/v3/chat/completions"`
	APIKey      string        `yaml:"api_key" env:"ARK_API_KEY"`
	Model       string        `yaml:"model" env:"ARK_MODEL" env-default:"deepseek-r1-250120"`
	Temperature float64       `yaml:"temperature" env:"ARK_TEMPERATURE" env-default:"0.6"`
	Timeout     time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"60s"`
}

// Retry configures the backoff policy around upstream calls.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"5"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY" env-default:"1s"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY" env-default:"10s"`
}

// Coach configures response orchestration.
type Coach struct {
	// SyncBudget bounds the synchronous emotional reply. It must stay below
	// Upstream.Timeout so the HTTP caller is never starved by a mid-backoff
	// retry loop.
	SyncBudget        time.Duration `yaml:"sync_budget" env:"COACH_SYNC_BUDGET" env-default:"45s"`
	SessionTTL        time.Duration `yaml:"session_ttl" env:"COACH_SESSION_TTL" env-default:"1h"`
	MinCognitiveRunes int           `yaml:"min_cognitive_runes" env:"COACH_MIN_COGNITIVE_RUNES" env-default:"5"`
}

// MustLoad reads the configuration or panics. A missing CONFIG_PATH means
// environment-only configuration.
func MustLoad() *Config {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			panic("failed to read config file: " + err.Error())
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read config from environment: " + err.Error())
	}

	return &cfg
}
