package config

import "time"

// CatalogConfig selects where items, recipes and prices come from
type CatalogConfig struct {
	// Source: db (imported catalog in the database), file (dump loaded at startup), api (live GW2 API)
	Source string `mapstructure:"source" validate:"required,oneof=db file api"`

	// Dump path, required for the file source. Files ending in .br are brotli compressed.
	FilePath string `mapstructure:"file_path" validate:"required_if=Source file"`

	API GW2APIConfig `mapstructure:"api"`
}

// GW2APIConfig holds Guild Wars 2 API client configuration
type GW2APIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Ids per request; the API caps this at 200
	BatchSize int `mapstructure:"batch_size" validate:"min=1,max=200"`

	// Concurrent batch requests
	Concurrency int `mapstructure:"concurrency" validate:"min=1,max=16"`

	// Response language (en, es, de, fr, zh)
	Language string `mapstructure:"language" validate:"omitempty,oneof=en es de fr zh"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}
