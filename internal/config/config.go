package config

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const EnvPrefix = "CB_"

type (
	Config struct {
		TelegramAPIToken string        `env:"TOKEN,required"`
		LogLevel         int           `env:"LOG_LEVEL,default=4"`
		LogNoColor       bool          `env:"LOG_NO_COLOR,default=false"`
		DotPath          string        `env:"DOT_PATH,default=~/.cmdbot"`
		DBName           string        `env:"DB_NAME,default=bot.db"`
		SuperUsers       []int64       `env:"SUPERUSERS"`
		MetricsAddr      string        `env:"METRICS_ADDR,default=:9464"`
		Concurrency      int64         `env:"CONCURRENCY,default=16"`
		CompTimeout      time.Duration `env:"COMP_TIMEOUT,default=10s"`
		StaleAfter       time.Duration `env:"STALE_AFTER,default=5m"`
		LoginPassword    string        `env:"LOGIN_PASSWORD"`
		LLM              LLM
	}

	// LLM configures the hitokoto quote backend. An empty APIKey keeps the
	// static quote list.
	LLM struct {
		APIKey  string `env:"LLM_API_KEY"`
		Model   string `env:"LLM_API_MODEL"`
		BaseURL string `env:"LLM_API_URL"`
		Type    string `env:"LLM_API_TYPE,default=openai"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Process reads the configuration from lookuper without touching the
// process-wide copy.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, errors.Wrap(err, "expand dot path")
	}
	cfg.DotPath = dotPath
	switch cfg.LLM.Type {
	case "openai", "gemini":
	default:
		return nil, errors.Errorf("unsupported llm type %q", cfg.LLM.Type)
	}
	return cfg, nil
}

func Load() (Config, error) {
	once.Do(func() {
		cfg, err := Process(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

// IsSuperUser reports whether userID is listed in SUPERUSERS.
func (c Config) IsSuperUser(userID int64) bool {
	for _, id := range c.SuperUsers {
		if id == userID {
			return true
		}
	}
	return false
}
