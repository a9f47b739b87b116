package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	apperrors "chessclub-bot/internal/common/errors"
)

// Access list backends.
const (
	AccessBackendFile  = "file"
	AccessBackendRedis = "redis"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Debug    bool   `env:"DEBUG" envDefault:"false"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:"bot.log"`

	Telegram struct {
		BotToken    string        `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
		APIURL      string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
		PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`
		RawAdminIDs string        `env:"ADMIN_IDS,required,notEmpty"`
		AdminIDs    []int64
	}

	Storage struct {
		DataDir      string `env:"DATA_DIR" envDefault:"data"`
		ActivityFile string `env:"ACTIVITY_FILE" envDefault:"user_activity.json"`
		ProfilesFile string `env:"PROFILES_FILE" envDefault:"user_profiles.json"`
		AccessFile   string `env:"ACCESS_FILE" envDefault:"access.json"`
	}

	Access struct {
		Backend string `env:"ACCESS_BACKEND" envDefault:"file"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	HTTP struct {
		Addr               string        `env:"HTTP_ADDR" envDefault:":8080"`
		CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
		InitDataTTL        time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine: production sets variables directly.
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses configuration from an explicit variable set instead of the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, apperrors.NewConfigurationError(err)
	}

	ids, err := ParseAdminIDs(cfg.Telegram.RawAdminIDs)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err)
	}
	cfg.Telegram.AdminIDs = ids

	switch cfg.Access.Backend {
	case AccessBackendFile:
	case AccessBackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, apperrors.NewConfigurationError(errors.New("REDIS_ADDR is required when ACCESS_BACKEND=redis"))
		}
	default:
		return nil, apperrors.NewConfigurationError(fmt.Errorf("invalid ACCESS_BACKEND %q", cfg.Access.Backend))
	}
	return cfg, nil
}

// ParseAdminIDs parses a comma separated list of user ids, ignoring blanks.
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("ADMIN_IDS must list at least one user id")
	}
	return ids, nil
}

func (c *Config) ActivityPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.ActivityFile)
}

func (c *Config) ProfilesPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.ProfilesFile)
}

func (c *Config) AccessPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.AccessFile)
}

// RedisEnabled reports whether a Redis connection should be opened.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
