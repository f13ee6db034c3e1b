package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

//go:embed default_tables.yaml
var defaultTables []byte

// DefaultTables returns the exception tables compiled into the binary
func DefaultTables() (*crafting.ExceptionTables, error) {
	return ParseTables(defaultTables)
}

// LoadTables reads exception tables from path, or the embedded defaults when path is empty
func LoadTables(path string) (*crafting.ExceptionTables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	tables, err := ParseTables(data)
	if err != nil {
		return nil, fmt.Errorf("tables file %s: %w", path, err)
	}
	return tables, nil
}

// ParseTables decodes and validates a YAML tables document
func ParseTables(data []byte) (*crafting.ExceptionTables, error) {
	tables := crafting.NewEmptyTables()
	if err := yaml.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	if tables.Currencies == nil {
		tables.Currencies = make(map[int]crafting.CurrencyValue)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables: %w", err)
	}
	return tables, nil
}

// EngineTables loads the configured tables and applies the engine overrides
func EngineTables(cfg *EngineConfig) (*crafting.ExceptionTables, error) {
	tables, err := LoadTables(cfg.TablesPath)
	if err != nil {
		return nil, err
	}
	if cfg.ValueOwnThreshold > 0 {
		tables.ValueOwnThreshold = cfg.ValueOwnThreshold
	}
	return tables, nil
}
