package cli

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect gw2craft configuration.

Configuration is loaded from multiple sources with priority:
1. Environment variables (GW2_* prefix, DATABASE_URL)
2. Config file (config.yaml)
3. Default values

Examples:
  gw2craft config show
  gw2craft config tables`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigTablesCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(out, "Warning: Failed to load config: %v\n", err)
				fmt.Fprintln(out, "Using default configuration.")
				cfg = config.LoadConfigOrDefault("")
			}
			if jsonOutput {
				cfg.Database.Password = maskSecret(cfg.Database.Password)
				cfg.Database.URL = maskPassword(cfg.Database.URL)
				return writeJSON(out, cfg)
			}
			printConfig(out, cfg)
			return nil
		},
	}
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Database:")
	fmt.Fprintf(out, "  Type:             %s\n", cfg.Database.Type)
	switch {
	case cfg.Database.URL != "":
		fmt.Fprintf(out, "  URL:              %s\n", maskPassword(cfg.Database.URL))
	case cfg.Database.Type == "sqlite":
		fmt.Fprintf(out, "  Path:             %s\n", cfg.Database.Path)
	default:
		fmt.Fprintf(out, "  Host:             %s\n", cfg.Database.Host)
		fmt.Fprintf(out, "  Port:             %d\n", cfg.Database.Port)
		fmt.Fprintf(out, "  Database:         %s\n", cfg.Database.Name)
		fmt.Fprintf(out, "  User:             %s\n", cfg.Database.User)
	}
	fmt.Fprintf(out, "  Max Connections:  %d\n", cfg.Database.Pool.MaxOpen)

	fmt.Fprintln(out, "\nCatalog:")
	fmt.Fprintf(out, "  Source:           %s\n", cfg.Catalog.Source)
	if cfg.Catalog.FilePath != "" {
		fmt.Fprintf(out, "  File:             %s\n", cfg.Catalog.FilePath)
	}
	fmt.Fprintf(out, "  API Base URL:     %s\n", cfg.Catalog.API.BaseURL)
	fmt.Fprintf(out, "  API Timeout:      %s\n", cfg.Catalog.API.Timeout)
	fmt.Fprintf(out, "  Rate Limit:       %d req/s (burst: %d)\n",
		cfg.Catalog.API.RateLimit.Requests, cfg.Catalog.API.RateLimit.Burst)
	fmt.Fprintf(out, "  Batch Size:       %d\n", cfg.Catalog.API.BatchSize)

	fmt.Fprintln(out, "\nEngine:")
	tables := cfg.Engine.TablesPath
	if tables == "" {
		tables = "(built-in)"
	}
	fmt.Fprintf(out, "  Tables:           %s\n", tables)
	fmt.Fprintf(out, "  Value-own cutoff: %.2f\n", cfg.Engine.ValueOwnThreshold)
	if cfg.Engine.Cache.Disabled {
		fmt.Fprintln(out, "  Cache:            disabled")
	} else {
		fmt.Fprintf(out, "  Recipe Cache TTL: %s\n", cfg.Engine.Cache.RecipeTTL)
		fmt.Fprintf(out, "  Result Cache TTL: %s\n", cfg.Engine.Cache.ResultTTL)
	}

	fmt.Fprintln(out, "\nWorker:")
	fmt.Fprintf(out, "  Mode:             %s\n", cfg.Worker.Mode)
	fmt.Fprintf(out, "  Queue Size:       %d\n", cfg.Worker.QueueSize)

	fmt.Fprintln(out, "\nLogging:")
	fmt.Fprintf(out, "  Level:            %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  Format:           %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  Output:           %s\n", cfg.Logging.Output)

	fmt.Fprintln(out, "\nMetrics:")
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "  Endpoint:         http://%s%s\n", cfg.Metrics.Address(), cfg.Metrics.Path)
	} else {
		fmt.Fprintln(out, "  Enabled:          false")
	}
}

func newConfigTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the effective exception tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tables, err := config.EngineTables(&cfg.Engine)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), tables)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(tables)
		},
	}
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "xxxxx"
}
