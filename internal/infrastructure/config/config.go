package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	BaseURL      string        `env:"LMS_BASE_URL,      default=http://localhost:8000"`
	PollInterval time.Duration `env:"LMS_POLL_INTERVAL, default=15s"`
	Env          string        `env:"ENV,               default=development"`
	LogLevel     string        `env:"LOG_LEVEL,         default=info"`
	AgentAddr    string        `env:"AGENT_ADDR,        default=:9180"`

	Tokens TokenConfig
	Alert  AlertConfig
}

// TokenConfig selects where the session token pair is persisted.
// Backend "file" uses Path; backend "redis" uses the Redis settings.
type TokenConfig struct {
	Backend string `env:"TOKEN_STORE, default=file"`
	Path    string `env:"TOKEN_FILE,  default=.lms/tokens.json"`
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Prefix string `env:"REDIS_PREFIX, default=lms"`
}

// AlertConfig configures the external alert commands, given as
// space-separated argv strings. Empty values keep alerts log-only.
type AlertConfig struct {
	SoundCmd []string `env:"ALERT_SOUND_CMD, delimiter= "`
	ToastCmd []string `env:"ALERT_TOAST_CMD, delimiter= "`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
