package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
)

// calcFlags are the user inputs shared by calc, steps, tree and caps
type calcFlags struct {
	quantity int
	own      map[string]int
	forceBuy []int
	tiers    map[string]int
	valueOwn bool
}

func (f *calcFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.quantity, "qty", "q", 1, "Quantity to produce")
	cmd.Flags().StringToIntVar(&f.own, "own", nil, "Owned inventory as id=count (repeatable)")
	cmd.Flags().IntSliceVar(&f.forceBuy, "force-buy", nil, "Item ids to always buy")
	cmd.Flags().StringToIntVar(&f.tiers, "tier", nil, "Homestead refinement tier as recipe-output-id=tier")
	cmd.Flags().BoolVar(&f.valueOwn, "value-own", false, "Buy ingredients that cost little less than crafting them")
}

func (f *calcFlags) command(itemID int) (*commands.CalculateCraftingCommand, error) {
	inventory, err := intKeys("own", f.own)
	if err != nil {
		return nil, err
	}
	tiers, err := intKeys("tier", f.tiers)
	if err != nil {
		return nil, err
	}
	return &commands.CalculateCraftingCommand{
		ItemID:          itemID,
		Quantity:        f.quantity,
		Inventory:       inventory,
		ForceBuy:        f.forceBuy,
		EfficiencyTiers: tiers,
		ValueOwnItems:   f.valueOwn,
	}, nil
}

// calculate runs a CalculateCraftingCommand through the mediator
func calculate(ctx context.Context, app *App, flags *calcFlags, arg string) (*commands.CalculateCraftingResponse, error) {
	itemID, err := parseItemID(arg)
	if err != nil {
		return nil, err
	}
	cmd, err := flags.command(itemID)
	if err != nil {
		return nil, err
	}
	response, err := app.Mediator.Send(app.Context(ctx), cmd)
	if err != nil {
		return nil, err
	}
	plan, ok := response.(*commands.CalculateCraftingResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", response)
	}
	return plan, nil
}

// planView selects which parts of a plan a command prints
type planView struct {
	summary bool
	tree    bool
	steps   bool
	caps    bool
}

func newPlanCommand(use, short string, view planView) *cobra.Command {
	flags := &calcFlags{}
	cmd := &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *App) error {
				plan, err := calculate(cmd.Context(), app, flags, args[0])
				if err != nil {
					return err
				}
				return printPlan(cmd.OutOrStdout(), plan, view)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// NewCalcCommand prints the full plan: totals, tree, steps, caps and warnings
func NewCalcCommand() *cobra.Command {
	return newPlanCommand("calc", "Compute the cheapest way to obtain an item",
		planView{summary: true, tree: true, steps: true, caps: true})
}

// NewStepsCommand prints the ordered crafting checklist
func NewStepsCommand() *cobra.Command {
	return newPlanCommand("steps", "Print the ordered crafting steps for an item",
		planView{steps: true})
}

// NewTreeCommand prints the decided ingredient tree
func NewTreeCommand() *cobra.Command {
	return newPlanCommand("tree", "Print the ingredient tree with buy/craft decisions",
		planView{summary: true, tree: true})
}

// NewCapsCommand prints quantities of purchase-capped ingredients
func NewCapsCommand() *cobra.Command {
	return newPlanCommand("caps", "Print the purchase-capped ingredients an item needs",
		planView{caps: true})
}

func printPlan(w io.Writer, plan *commands.CalculateCraftingResponse, view planView) error {
	if jsonOutput {
		return writeJSON(w, plan)
	}

	formatter := NewTreeFormatter(!noColor && isTerminal(w))
	if view.summary {
		fmt.Fprintln(w, formatter.FormatTreeSummary(plan.Tree))
		fmt.Fprint(w, formatter.FormatTotals(plan.Totals))
	}
	if view.tree {
		fmt.Fprintln(w)
		fmt.Fprint(w, formatter.FormatTree(plan.Tree))
	}
	if view.steps {
		if view.summary {
			fmt.Fprintln(w, "\nCrafting steps:")
		}
		fmt.Fprint(w, formatter.FormatSteps(plan.Steps, plan.Tree))
	}
	if view.caps && (len(plan.CapBreakdown) > 0 || !view.summary) {
		if view.summary {
			fmt.Fprintln(w, "\nPurchase-capped ingredients:")
		}
		fmt.Fprint(w, formatter.FormatCaps(plan.CapBreakdown, services.SortedCapIDs(plan.CapBreakdown), plan.Tree))
	}
	writeWarnings(w, plan.Warnings)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
