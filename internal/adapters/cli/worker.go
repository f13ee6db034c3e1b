package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/worker"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
)

// NewWorkerCommand runs the recalculation worker on stdin/stdout. The dispatcher
// starts it as a child process; it is not meant to be run by hand.
func NewWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Serve tree recalculations over stdin/stdout",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tables, err := config.EngineTables(&cfg.Engine)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := worker.NewHandler(services.NewModeRecalculator(tables))
			return handler.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
