package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
)

// NewImportCommand loads a catalog dump into the configured store
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json[.br]>",
		Short: "Import a catalog dump of items, recipes and prices",
		Long: `Reads a JSON catalog dump, optionally brotli compressed, and upserts it into
the configured catalog store. Rows already present are overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *App) error {
				response, err := app.Mediator.Send(app.Context(cmd.Context()), &commands.ImportCatalogCommand{Path: args[0]})
				if err != nil {
					return err
				}
				result, ok := response.(*commands.ImportCatalogResponse)
				if !ok {
					return fmt.Errorf("unexpected response type %T", response)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s items, %s recipes, %s prices, %s decorations\n",
					formatQuantity(result.Items), formatQuantity(result.Recipes),
					formatQuantity(result.Prices), formatQuantity(result.Decorations))
				return nil
			})
		},
	}
}
