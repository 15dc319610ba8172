package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN          string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL          string `env:"RABBITMQ_URL,required=true"`
	RedisURL             string `env:"REDIS_URL,required=true"`
	ArcGISSyncURL        string `env:"ARCGIS_SYNC_URL,required=true"`
	AuthTokenSecret      string `env:"AUTH_TOKEN_SECRET,required=true"`
	RateLimitPerSec      int    `env:"RATE_LIMIT_PER_SEC,default=25"`
	EffectsConcurrency   int    `env:"EFFECTS_CONCURRENCY,default=4"`
	SyncSweepIntervalSec int    `env:"SYNC_SWEEP_INTERVAL_SEC,default=60"`
	SyncSweepLimit       int    `env:"SYNC_SWEEP_LIMIT,default=50"`
	APIPort              int    `env:"API_PORT,default=8080"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
