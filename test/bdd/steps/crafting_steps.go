package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/catalog"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/persistence"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/worker"
	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

// craftingContext holds state for crafting plan, interactive mode and import scenarios
type craftingContext struct {
	memory    *catalog.MemoryCatalog
	source    crafting.Catalog
	writer    crafting.CatalogWriter
	inventory map[int]int
	forceBuy  []int

	workerBroken bool
	workerStarts int

	mediator   common.Mediator
	dispatcher *worker.Dispatcher
	tempDir    string
	dumpPath   string

	plan     *commands.CalculateCraftingResponse
	recalc   *commands.RecalculateTreeResponse
	imported *commands.ImportCatalogResponse
	err      error
}

func (cc *craftingContext) reset() {
	if cc.dispatcher != nil {
		_ = cc.dispatcher.Close()
	}
	if cc.tempDir != "" {
		_ = os.RemoveAll(cc.tempDir)
	}
	cc.memory = catalog.NewMemoryCatalog()
	cc.source = cc.memory
	cc.writer = cc.memory
	cc.inventory = make(map[int]int)
	cc.forceBuy = nil
	cc.workerBroken = false
	cc.workerStarts = 0
	cc.mediator = nil
	cc.dispatcher = nil
	cc.tempDir = ""
	cc.dumpPath = ""
	cc.plan = nil
	cc.recalc = nil
	cc.imported = nil
	cc.err = nil
}

// engine wires calculator, dispatcher and handlers on first use
func (cc *craftingContext) engine() common.Mediator {
	if cc.mediator != nil {
		return cc.mediator
	}
	tables := helpers.NewTestTables()
	calculator := services.NewCalculator(cc.source, tables,
		services.NewRecipeCache(0, time.Minute), services.NewResultCache(time.Minute, time.Minute))

	handler := worker.NewHandler(services.NewModeRecalculator(tables))
	local := worker.LocalFactory(handler)
	factory := func() (worker.Worker, error) {
		cc.workerStarts++
		if cc.workerBroken {
			return nil, errors.New("worker binary missing")
		}
		return local()
	}
	cc.dispatcher = worker.NewDispatcher(factory, handler, 4)

	m := common.NewMediator()
	_ = common.RegisterHandler[*commands.CalculateCraftingCommand](m, commands.NewCalculateCraftingHandler(calculator))
	_ = common.RegisterHandler[*commands.RecalculateTreeCommand](m, commands.NewRecalculateTreeHandler(cc.dispatcher))
	_ = common.RegisterHandler[*commands.ImportCatalogCommand](m,
		commands.NewImportCatalogHandler(catalog.NewImporter(), cc.writer, calculator))
	cc.mediator = m
	return m
}

// ============================================================================
// Catalog Setup Steps
// ============================================================================

func (cc *craftingContext) anItemNamed(id int, name string) error {
	cc.memory.AddItem(&crafting.Item{ID: id, Name: name, Kind: crafting.KindItem})
	return nil
}

func (cc *craftingContext) itemIsPriced(id, buy, sell int) error {
	cc.memory.SetPrice(id, buy, sell)
	return nil
}

func (cc *craftingContext) aRecipeProducingFrom(recipeID, batch, outputID int, table *godog.Table) error {
	ingredients, err := parseIngredients(table)
	if err != nil {
		return err
	}
	addRecipe(cc.memory, helpers.NewRecipe(recipeID, outputID, batch, ingredients...))
	return nil
}

func (cc *craftingContext) aMerchantRecipeProducingForCoin(recipeID int, merchant string, batch, outputID, coin int) error {
	addRecipe(cc.memory, helpers.NewMerchantRecipe(recipeID, outputID, batch, merchant, helpers.Cur(1, coin)))
	return nil
}

func addRecipe(memory *catalog.MemoryCatalog, recipe *crafting.Recipe) {
	memory.AddRecipe(recipe)
	memory.AddItem(&crafting.Item{ID: recipe.OutputItemID, Name: helpers.ItemName(recipe.OutputItemID), Kind: crafting.KindItem})
	for _, ing := range recipe.Ingredients {
		if ing.Kind == crafting.KindItem {
			memory.AddItem(&crafting.Item{ID: ing.ID, Name: helpers.ItemName(ing.ID), Kind: crafting.KindItem})
		}
	}
}

func parseIngredients(table *godog.Table) ([]crafting.Ingredient, error) {
	if len(table.Rows) < 2 {
		return nil, fmt.Errorf("ingredient table needs a header and at least one row")
	}
	ingredients := make([]crafting.Ingredient, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		id, err := strconv.Atoi(row.Cells[0].Value)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient id %q", row.Cells[0].Value)
		}
		count, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient count %q", row.Cells[1].Value)
		}
		ingredients = append(ingredients, helpers.Ing(id, count))
	}
	return ingredients, nil
}

func (cc *craftingContext) iOwnOfItem(count, id int) error {
	cc.inventory[id] = count
	return nil
}

func (cc *craftingContext) iAlwaysBuyItem(id int) error {
	cc.forceBuy = append(cc.forceBuy, id)
	return nil
}

func (cc *craftingContext) theBackgroundWorkerCannotStart() error {
	cc.workerBroken = true
	return nil
}

func (cc *craftingContext) theCatalogIsStoredInTheDatabase() error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	repo := persistence.NewGormCatalogRepository(helpers.SharedTestDB)
	cc.source = repo
	cc.writer = repo
	return nil
}

func (cc *craftingContext) aCatalogDumpFileContaining(doc *godog.DocString) error {
	if cc.tempDir == "" {
		dir, err := os.MkdirTemp("", "gw2craft-bdd-")
		if err != nil {
			return err
		}
		cc.tempDir = dir
	}
	cc.dumpPath = filepath.Join(cc.tempDir, fmt.Sprintf("dump-%d.json", time.Now().UnixNano()))
	return os.WriteFile(cc.dumpPath, []byte(doc.Content), 0o600)
}

// ============================================================================
// Action Steps
// ============================================================================

func (cc *craftingContext) iCalculateOfItem(quantity, id int) error {
	resp, err := cc.engine().Send(context.Background(), &commands.CalculateCraftingCommand{
		ItemID:    id,
		Quantity:  quantity,
		Inventory: cc.inventory,
		ForceBuy:  cc.forceBuy,
	})
	cc.err = err
	cc.plan = nil
	if err == nil {
		cc.plan = resp.(*commands.CalculateCraftingResponse)
	}
	return nil
}

func (cc *craftingContext) iRecalculateTheTreeWithItemSetTo(quantity, id int, mode string) error {
	if cc.plan == nil {
		return fmt.Errorf("no plan calculated: %v", cc.err)
	}
	parsed, ok := crafting.ParseMode(mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}
	resp, err := cc.engine().Send(context.Background(), &commands.RecalculateTreeCommand{
		Tree:           cc.plan.Tree,
		GlobalQuantity: quantity,
		ModeOverrides:  map[int]crafting.Mode{id: parsed},
	})
	if err != nil {
		return err
	}
	cc.recalc = resp.(*commands.RecalculateTreeResponse)
	return nil
}

func (cc *craftingContext) iImportTheCatalogDump() error {
	resp, err := cc.engine().Send(context.Background(), &commands.ImportCatalogCommand{Path: cc.dumpPath})
	if err != nil {
		return err
	}
	cc.imported = resp.(*commands.ImportCatalogResponse)
	return nil
}

// ============================================================================
// Assertion Steps
// ============================================================================

func (cc *craftingContext) requirePlan() error {
	if cc.plan == nil {
		return fmt.Errorf("expected a plan, calculation failed: %v", cc.err)
	}
	return nil
}

func (cc *craftingContext) node(id int) (*crafting.TreeNode, error) {
	if err := cc.requirePlan(); err != nil {
		return nil, err
	}
	nodes := cc.plan.Tree.FindAll(id)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node %d not found in tree", id)
	}
	return nodes[0], nil
}

func expectInt(what string, expected, actual int) error {
	if expected != actual {
		return fmt.Errorf("expected %s %d, got %d", what, expected, actual)
	}
	return nil
}

func (cc *craftingContext) theRootShouldBeABoughtLeaf() error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	if !cc.plan.Tree.IsLeaf() || cc.plan.Tree.Craft {
		return fmt.Errorf("expected a bought leaf, got %d children with craft=%v", len(cc.plan.Tree.Children), cc.plan.Tree.Craft)
	}
	return nil
}

func (cc *craftingContext) theRootDecisionPriceShouldEqualItsBuyPrice() error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	return expectInt("root decision price", cc.plan.Tree.BuyPrice, cc.plan.Tree.DecisionPrice)
}

func (cc *craftingContext) theRootShouldBeNamed(name string) error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	if cc.plan.Tree.Name != name {
		return fmt.Errorf("expected root name %q, got %q", name, cc.plan.Tree.Name)
	}
	return nil
}

func (cc *craftingContext) nodeShouldHaveTotalQuantity(id, expected int) error {
	n, err := cc.node(id)
	if err != nil {
		return err
	}
	return expectInt(fmt.Sprintf("node %d total quantity", id), expected, n.TotalQuantity)
}

func (cc *craftingContext) nodeShouldHaveUsedQuantity(id, expected int) error {
	n, err := cc.node(id)
	if err != nil {
		return err
	}
	return expectInt(fmt.Sprintf("node %d used quantity", id), expected, n.UsedQuantity)
}

func (cc *craftingContext) nodeShouldDrawFromInventory(id, expected int) error {
	n, err := cc.node(id)
	if err != nil {
		return err
	}
	return expectInt(fmt.Sprintf("node %d drawn from inventory", id), expected, n.DrawnFromInventory)
}

func (cc *craftingContext) nodeShouldHaveDecisionPrice(id, expected int) error {
	n, err := cc.node(id)
	if err != nil {
		return err
	}
	return expectInt(fmt.Sprintf("node %d decision price", id), expected, n.DecisionPrice)
}

func (cc *craftingContext) nodeShouldBe(id int, decision string) error {
	n, err := cc.node(id)
	if err != nil {
		return err
	}
	if want := decision == "crafted"; n.Craft != want {
		return fmt.Errorf("expected node %d to be %s, craft=%v", id, decision, n.Craft)
	}
	return nil
}

func (cc *craftingContext) thePlanCostShouldBe(expected int) error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	return expectInt("plan cost", expected, cc.plan.Totals.TotalCrafted)
}

func (cc *craftingContext) thePlanShouldHaveNoSteps() error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	return expectInt("step count", 0, len(cc.plan.Steps))
}

func (cc *craftingContext) thePlanShouldContainWarnings(expected int, kind string) error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	count := 0
	for _, w := range cc.plan.Warnings {
		if string(w.Kind) == kind {
			count++
		}
	}
	return expectInt(kind+" warnings", expected, count)
}

func (cc *craftingContext) theStepsShouldBeOrdered(list string) error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	expected := make([]string, 0)
	for _, part := range strings.Split(list, ",") {
		expected = append(expected, strings.TrimSpace(part))
	}
	actual := make([]string, len(cc.plan.Steps))
	for i, step := range cc.plan.Steps {
		actual[i] = strconv.Itoa(step.ID)
	}
	if strings.Join(expected, ",") != strings.Join(actual, ",") {
		return fmt.Errorf("expected steps %v, got %v", expected, actual)
	}
	return nil
}

func (cc *craftingContext) theStepForItemShouldHave(id, quantity, crafts int) error {
	if err := cc.requirePlan(); err != nil {
		return err
	}
	for _, step := range cc.plan.Steps {
		if step.ID != id {
			continue
		}
		if err := expectInt("step quantity", quantity, step.Quantity); err != nil {
			return err
		}
		return expectInt("step crafts", crafts, step.Crafts)
	}
	return fmt.Errorf("no step for item %d", id)
}

func (cc *craftingContext) theCalculationShouldFailWithInvalidInput() error {
	if cc.err == nil {
		return fmt.Errorf("expected calculation to fail")
	}
	if !errors.Is(cc.err, crafting.ErrInvalidInput) {
		return fmt.Errorf("expected invalid input error, got %v", cc.err)
	}
	return nil
}

func (cc *craftingContext) theRecalculatedPlanCostShouldBe(expected int) error {
	if cc.recalc == nil {
		return fmt.Errorf("no recalculation ran")
	}
	return expectInt("recalculated plan cost", expected, cc.recalc.Totals.TotalCrafted)
}

func (cc *craftingContext) theRecalculationShouldReportAWorkerFallback() error {
	if !cc.hasFallbackWarning() {
		return fmt.Errorf("expected a worker fallback warning")
	}
	return nil
}

func (cc *craftingContext) theRecalculationShouldNotReportAWorkerFallback() error {
	if cc.hasFallbackWarning() {
		return fmt.Errorf("unexpected worker fallback warning")
	}
	return nil
}

func (cc *craftingContext) hasFallbackWarning() bool {
	if cc.recalc == nil {
		return false
	}
	for _, w := range cc.recalc.Warnings {
		if w.Kind == crafting.WarningWorkerFallback {
			return true
		}
	}
	return false
}

func (cc *craftingContext) theWorkerShouldHaveBeenStarted(expected int) error {
	return expectInt("worker starts", expected, cc.workerStarts)
}

func (cc *craftingContext) recipesShouldHaveBeenImported(expected int) error {
	if cc.imported == nil {
		return fmt.Errorf("no import ran")
	}
	return expectInt("imported recipes", expected, cc.imported.Recipes)
}

func (cc *craftingContext) pricesShouldHaveBeenImported(expected int) error {
	if cc.imported == nil {
		return fmt.Errorf("no import ran")
	}
	return expectInt("imported prices", expected, cc.imported.Prices)
}

// InitializeCraftingScenario registers crafting step definitions
func InitializeCraftingScenario(sc *godog.ScenarioContext) {
	cc := &craftingContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		cc.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		cc.reset()
		return ctx, nil
	})

	// Catalog setup steps
	sc.Step(`^an item (\d+) named "([^"]*)"$`, cc.anItemNamed)
	sc.Step(`^item (\d+) is priced (\d+) to buy and (\d+) to sell$`, cc.itemIsPriced)
	sc.Step(`^a recipe (\d+) producing (\d+) of item (\d+) from:$`, cc.aRecipeProducingFrom)
	sc.Step(`^a merchant recipe (\d+) sold by "([^"]*)" producing (\d+) of item (\d+) for (\d+) coin$`, cc.aMerchantRecipeProducingForCoin)
	sc.Step(`^I own (\d+) of item (\d+)$`, cc.iOwnOfItem)
	sc.Step(`^I always buy item (\d+)$`, cc.iAlwaysBuyItem)
	sc.Step(`^the background worker cannot start$`, cc.theBackgroundWorkerCannotStart)
	sc.Step(`^the catalog is stored in the database$`, cc.theCatalogIsStoredInTheDatabase)
	sc.Step(`^a catalog dump file containing:$`, cc.aCatalogDumpFileContaining)

	// Action steps
	sc.Step(`^I calculate (\d+) of item (\d+)$`, cc.iCalculateOfItem)
	sc.Step(`^I recalculate the tree for quantity (\d+) with item (\d+) set to "([^"]*)"$`, cc.iRecalculateTheTreeWithItemSetTo)
	sc.Step(`^I import the catalog dump$`, cc.iImportTheCatalogDump)

	// Plan assertion steps
	sc.Step(`^the root should be a bought leaf$`, cc.theRootShouldBeABoughtLeaf)
	sc.Step(`^the root decision price should equal its buy price$`, cc.theRootDecisionPriceShouldEqualItsBuyPrice)
	sc.Step(`^the root should be named "([^"]*)"$`, cc.theRootShouldBeNamed)
	sc.Step(`^node (\d+) should have total quantity (\d+)$`, cc.nodeShouldHaveTotalQuantity)
	sc.Step(`^node (\d+) should have used quantity (\d+)$`, cc.nodeShouldHaveUsedQuantity)
	sc.Step(`^node (\d+) should draw (\d+) from inventory$`, cc.nodeShouldDrawFromInventory)
	sc.Step(`^node (\d+) should have decision price (\d+)$`, cc.nodeShouldHaveDecisionPrice)
	sc.Step(`^node (\d+) should be (crafted|bought)$`, cc.nodeShouldBe)
	sc.Step(`^the plan cost should be (\d+)$`, cc.thePlanCostShouldBe)
	sc.Step(`^the plan should have no steps$`, cc.thePlanShouldHaveNoSteps)
	sc.Step(`^the plan should contain (\d+) "([^"]*)" warnings?$`, cc.thePlanShouldContainWarnings)
	sc.Step(`^the steps should be ordered (.+)$`, cc.theStepsShouldBeOrdered)
	sc.Step(`^the step for item (\d+) should have quantity (\d+) and (\d+) crafts$`, cc.theStepForItemShouldHave)
	sc.Step(`^the calculation should fail with invalid input$`, cc.theCalculationShouldFailWithInvalidInput)

	// Recalculation assertion steps
	sc.Step(`^the recalculated plan cost should be (\d+)$`, cc.theRecalculatedPlanCostShouldBe)
	sc.Step(`^the recalculation should report a worker fallback$`, cc.theRecalculationShouldReportAWorkerFallback)
	sc.Step(`^the recalculation should not report a worker fallback$`, cc.theRecalculationShouldNotReportAWorkerFallback)
	sc.Step(`^the worker should have been started (\d+) times?$`, cc.theWorkerShouldHaveBeenStarted)

	// Import assertion steps
	sc.Step(`^(\d+) recipes? should have been imported$`, cc.recipesShouldHaveBeenImported)
	sc.Step(`^(\d+) prices? should have been imported$`, cc.pricesShouldHaveBeenImported)
}
