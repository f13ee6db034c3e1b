package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	noColor    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gw2craft",
		Short: "gw2craft - Guild Wars 2 crafting cost calculator",
		Long: `gw2craft expands a Guild Wars 2 recipe into its full ingredient tree, decides
per ingredient whether buying or crafting is cheaper, and prints an ordered
crafting plan.

Examples:
  gw2craft import catalog.json.br
  gw2craft calc 19675 --qty 77
  gw2craft calc 46742 --own 19700=250 --force-buy 19721
  gw2craft steps 30689 --value-own
  gw2craft tree 30689
  gw2craft interactive 30689`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml, ./configs, /etc/gw2craft)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable ANSI colors")

	rootCmd.AddCommand(NewCalcCommand())
	rootCmd.AddCommand(NewStepsCommand())
	rootCmd.AddCommand(NewTreeCommand())
	rootCmd.AddCommand(NewCapsCommand())
	rootCmd.AddCommand(NewInteractiveCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewWorkerCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// loadConfig loads configuration honouring the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// withApp loads configuration, wires the application and runs fn
func withApp(fn func(app *App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
