// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"

	"github.com/rbwleague/matchcoordinator/pkg/constants"
)

type Config struct {
	AdminAddr        string `env:"ADMIN_ADDR"         envDefault:":8080" envDocs:"listen address of the admin HTTP API and /metrics"`
	DatabaseURL      string `env:"DATABASE_URL"       envDefault:""      envDocs:"postgres connection string, empty runs with in-memory repositories"`
	DiscordToken     string `env:"DISCORD_TOKEN"      envDefault:""      envDocs:"bot token used for guild operations"`
	GuildID          string `env:"GUILD_ID"           envDefault:""      envDocs:"guild the coordinator manages"`
	GameCategoryID   string `env:"GAME_CATEGORY_ID"   envDefault:""      envDocs:"category new game channels are created under"`
	ScoringChannelID string `env:"SCORING_CHANNEL_ID" envDefault:""      envDocs:"channel receiving score and void notices"`
	GameServerURL    string `env:"GAME_SERVER_URL"    envDefault:""      envDocs:"websocket url of the game server bridge"`
	ZipkinURL        string `env:"ZIPKIN_URL"         envDefault:""      envDocs:"zipkin collector endpoint, tracing is disabled when empty"`
	RatingsFile      string `env:"RATINGS_FILE"       envDefault:""      envDocs:"yaml file with rating brackets, built-in brackets are used when empty"`
	QueuesFile       string `env:"QUEUES_FILE"        envDefault:""      envDocs:"yaml file with queue definitions saved at startup"`
	LogLevel         string `env:"LOG_LEVEL"          envDefault:"info"  envDocs:"logrus level"`

	GuildRequestsPerSecond int `env:"GUILD_REQUESTS_PER_SECOND" envDefault:"10" envDocs:"sustained guild operation rate"`
	GuildBurst             int `env:"GUILD_BURST"               envDefault:"5"  envDocs:"guild operation burst size"`

	MaxConcurrentGames  int `env:"MAX_CONCURRENT_GAMES"   envDefault:"100"   envDocs:"active game ceiling used by admission control"`
	MaxQueueSize        int `env:"MAX_QUEUE_SIZE"         envDefault:"10000" envDocs:"hard cap of waiting players per queue"`
	MaxRetries          int `env:"MAX_RETRIES"            envDefault:"3"     envDocs:"composer retries per processing pass"`
	ProcessingDelayMs   int `env:"PROCESSING_DELAY_MS"    envDefault:"1000"  envDocs:"debounce before a scheduled queue pass"`
	LockTimeoutMs       int `env:"LOCK_TIMEOUT_MS"        envDefault:"15000" envDocs:"processing time after which a queue is considered stuck"`
	RetryDelayMs        int `env:"RETRY_DELAY_MS"         envDefault:"2000"  envDocs:"fixed delay between composer retries"`
	MonitorIntervalMs   int `env:"MONITOR_INTERVAL_MS"    envDefault:"2000"  envDocs:"monitor loop period"`
	ValidationTimeoutMs int `env:"VALIDATION_TIMEOUT_MS"  envDefault:"5000"  envDocs:"validation stage deadline, the stage fails open"`
	ComposerTimeoutMs   int `env:"COMPOSER_TIMEOUT_MS"    envDefault:"30000" envDocs:"composer deadline"`
	PickTimeoutSecond   int `env:"PICK_TIMEOUT_SECOND"    envDefault:"120"   envDocs:"draft pick turn timeout"`
	WarpTimeoutSecond   int `env:"WARP_TIMEOUT_SECOND"    envDefault:"60"    envDocs:"time to wait for a warp outcome"`
	CleanupDelaySecond  int `env:"CLEANUP_DELAY_SECOND"   envDefault:"30"    envDocs:"delay before game channels are removed"`
	GamePacingDelayMs   int `env:"GAME_PACING_DELAY_MS"   envDefault:"2000"  envDocs:"pause between games created in one pass"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxConcurrentGames <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_GAMES must be positive, got %d", c.MaxConcurrentGames)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("MAX_QUEUE_SIZE must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

func ms(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Millisecond
}

func seconds(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

func (c *Config) ProcessingDelay() time.Duration {
	return ms(c.ProcessingDelayMs, constants.ProcessingDelay)
}

func (c *Config) LockTimeout() time.Duration {
	return ms(c.LockTimeoutMs, constants.LockTimeout)
}

func (c *Config) RetryDelay() time.Duration {
	return ms(c.RetryDelayMs, constants.RetryDelay)
}

func (c *Config) MonitorInterval() time.Duration {
	return ms(c.MonitorIntervalMs, constants.MonitorInterval)
}

func (c *Config) ValidationTimeout() time.Duration {
	return ms(c.ValidationTimeoutMs, constants.ValidationTimeout)
}

func (c *Config) ComposerTimeout() time.Duration {
	return ms(c.ComposerTimeoutMs, constants.ComposerTimeout)
}

func (c *Config) GamePacingDelay() time.Duration {
	return ms(c.GamePacingDelayMs, constants.GamePacingDelay)
}

func (c *Config) PickTimeout() time.Duration {
	return seconds(c.PickTimeoutSecond, constants.PickTimeout)
}

func (c *Config) WarpTimeout() time.Duration {
	return seconds(c.WarpTimeoutSecond, constants.WarpTimeout)
}

func (c *Config) CleanupDelay() time.Duration {
	return seconds(c.CleanupDelaySecond, constants.ResourceCleanupDelay)
}
