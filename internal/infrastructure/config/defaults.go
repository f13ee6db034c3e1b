package config

import (
	"time"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "gw2craft.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "gw2craft"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gw2craft"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Catalog defaults
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "db"
	}
	if cfg.Catalog.API.BaseURL == "" {
		cfg.Catalog.API.BaseURL = "https://api.guildwars2.com/v2"
	}
	if cfg.Catalog.API.Timeout == 0 {
		cfg.Catalog.API.Timeout = 30 * time.Second
	}
	if cfg.Catalog.API.RateLimit.Requests == 0 {
		cfg.Catalog.API.RateLimit.Requests = 10
	}
	if cfg.Catalog.API.RateLimit.Burst == 0 {
		cfg.Catalog.API.RateLimit.Burst = 5
	}
	if cfg.Catalog.API.BatchSize == 0 {
		cfg.Catalog.API.BatchSize = 200
	}
	if cfg.Catalog.API.Concurrency == 0 {
		cfg.Catalog.API.Concurrency = 4
	}

	// Engine defaults
	if cfg.Engine.ValueOwnThreshold == 0 {
		cfg.Engine.ValueOwnThreshold = crafting.DefaultValueOwnThreshold
	}
	if cfg.Engine.Cache.RecipeTTL == 0 {
		cfg.Engine.Cache.RecipeTTL = time.Hour
	}
	if cfg.Engine.Cache.ResultTTL == 0 {
		cfg.Engine.Cache.ResultTTL = 5 * time.Minute
	}
	if cfg.Engine.Cache.CleanupInterval == 0 {
		cfg.Engine.Cache.CleanupInterval = 10 * time.Minute
	}

	// Worker defaults
	if cfg.Worker.Mode == "" {
		cfg.Worker.Mode = "local"
	}
	if cfg.Worker.QueueSize == 0 {
		cfg.Worker.QueueSize = 16
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
