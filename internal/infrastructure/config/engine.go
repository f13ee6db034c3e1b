package config

import "time"

// EngineConfig tunes the calculation engine
type EngineConfig struct {
	// Exception tables file. Empty uses the embedded defaults.
	TablesPath string `mapstructure:"tables_path"`

	// "Cheaper to buy" cutoff for value-own-items mode. Overrides the tables file value.
	ValueOwnThreshold float64 `mapstructure:"value_own_threshold" validate:"gt=0,lte=1"`

	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig holds in-process cache lifetimes
type CacheConfig struct {
	// Disable both caches
	Disabled bool `mapstructure:"disabled"`

	RecipeTTL       time.Duration `mapstructure:"recipe_ttl"`
	ResultTTL       time.Duration `mapstructure:"result_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// WorkerConfig selects how interactive recalculations are dispatched
type WorkerConfig struct {
	// Mode: process (child process), local (goroutine), sync (no worker)
	Mode string `mapstructure:"mode" validate:"required,oneof=process local sync"`

	QueueSize int `mapstructure:"queue_size" validate:"min=1"`

	// Worker binary for process mode. Empty runs the current executable.
	BinaryPath string `mapstructure:"binary_path"`
}
