package crafting

import "fmt"

// DefaultValueOwnThreshold is the "cheaper to buy" cutoff used by value-own-items mode.
// It is an empirical tunable, not a derived constant.
const DefaultValueOwnThreshold = 0.85

// CurrencyValue is the gold conversion for one wallet currency. A nil CopperPerUnit means
// the currency has no meaningful gold value; DecisionPrice, when set, is the per-unit value
// used only when comparing buy against craft.
type CurrencyValue struct {
	Name          string `yaml:"name" json:"name"`
	CopperPerUnit *int   `yaml:"copper_per_unit" json:"copper_per_unit,omitempty"`
	DecisionPrice *int   `yaml:"decision_price" json:"decision_price,omitempty"`
}

// BatchHalvingRule halves the output batch of a tiered recipe whose first
// ingredient is IngredientID when the selected tier equals Tier
type BatchHalvingRule struct {
	IngredientID int `yaml:"ingredient_id" json:"ingredient_id"`
	Tier         int `yaml:"tier" json:"tier"`
}

// EfficiencyTierTable describes the homestead refinement station upgrades
type EfficiencyTierTable struct {
	RecipeOutputIDs  []int              `yaml:"recipe_output_ids" json:"recipe_output_ids"`
	MaxTier          int                `yaml:"max_tier" json:"max_tier"`
	IngredientFloors map[int]int        `yaml:"ingredient_floors" json:"ingredient_floors"`
	BatchHalving     []BatchHalvingRule `yaml:"batch_halving" json:"batch_halving"`
}

// FixedRatioTable holds the empirically fixed ingredient vectors of the one recipe
// whose ratio is not proportional. Quantities maps a required count to child id → quantity.
type FixedRatioTable struct {
	ItemID     int                 `yaml:"item_id" json:"item_id"`
	Quantities map[int]map[int]int `yaml:"quantities" json:"quantities"`
}

// ExceptionTables is the versioned game-balance data injected into the engine
type ExceptionTables struct {
	Version            string                `yaml:"version" json:"version"`
	Currencies         map[int]CurrencyValue `yaml:"currencies" json:"currencies"`
	LeyLineEssencePair []int                 `yaml:"ley_line_essence_pair" json:"ley_line_essence_pair"`
	EfficiencyTiers    EfficiencyTierTable   `yaml:"efficiency_tiers" json:"efficiency_tiers"`
	FixedRatio         FixedRatioTable       `yaml:"fixed_ratio" json:"fixed_ratio"`
	DailyCooldownIDs   []int                 `yaml:"daily_cooldown_ids" json:"daily_cooldown_ids"`
	ValueOwnThreshold  float64               `yaml:"value_own_threshold" json:"value_own_threshold"`
}

// NewEmptyTables returns tables with no exceptions, useful for tests
func NewEmptyTables() *ExceptionTables {
	return &ExceptionTables{
		Currencies:        make(map[int]CurrencyValue),
		ValueOwnThreshold: DefaultValueOwnThreshold,
	}
}

// Validate checks the structural constraints the algorithms rely on
func (t *ExceptionTables) Validate() error {
	if len(t.LeyLineEssencePair) != 0 && len(t.LeyLineEssencePair) != 2 {
		return fmt.Errorf("ley_line_essence_pair must have exactly 2 ids, got %d", len(t.LeyLineEssencePair))
	}
	for count, vector := range t.FixedRatio.Quantities {
		if len(vector) != 4 {
			return fmt.Errorf("fixed_ratio quantities for count %d must list exactly 4 children, got %d", count, len(vector))
		}
	}
	if t.ValueOwnThreshold < 0 || t.ValueOwnThreshold > 1 {
		return fmt.Errorf("value_own_threshold must be within [0,1], got %v", t.ValueOwnThreshold)
	}
	return nil
}

// IsLeyLinePair returns true if a and b are the two condensed ley line essences
func (t *ExceptionTables) IsLeyLinePair(a, b int) bool {
	if len(t.LeyLineEssencePair) != 2 {
		return false
	}
	x, y := t.LeyLineEssencePair[0], t.LeyLineEssencePair[1]
	return (a == x && b == y) || (a == y && b == x)
}

// Currency returns the conversion entry for a currency id
func (t *ExceptionTables) Currency(id int) (CurrencyValue, bool) {
	value, ok := t.Currencies[id]
	return value, ok
}

// FixedRatioVector returns the hard-coded child quantities for the fixed-ratio item
func (t *ExceptionTables) FixedRatioVector(itemID, required int) (map[int]int, bool) {
	if t.FixedRatio.ItemID == 0 || itemID != t.FixedRatio.ItemID {
		return nil, false
	}
	vector, ok := t.FixedRatio.Quantities[required]
	return vector, ok
}

// IsFixedRatioItem reports whether id is the fixed-ratio item
func (t *ExceptionTables) IsFixedRatioItem(id int) bool {
	return t.FixedRatio.ItemID != 0 && id == t.FixedRatio.ItemID
}

// IsTieredRecipe reports whether a recipe output takes part in efficiency tiers
func (t *ExceptionTables) IsTieredRecipe(outputID int) bool {
	for _, id := range t.EfficiencyTiers.RecipeOutputIDs {
		if id == outputID {
			return true
		}
	}
	return false
}

// IngredientFloor returns the minimum count a tier rewrite may leave for an ingredient
func (t *ExceptionTables) IngredientFloor(ingredientID int) int {
	if floor, ok := t.EfficiencyTiers.IngredientFloors[ingredientID]; ok {
		return floor
	}
	return 1
}

// HalvesBatch reports whether the tier rewrite halves instead of doubling the output batch
func (t *ExceptionTables) HalvesBatch(ingredientID, tier int) bool {
	for _, rule := range t.EfficiencyTiers.BatchHalving {
		if rule.IngredientID == ingredientID && rule.Tier == tier {
			return true
		}
	}
	return false
}

// IsDailyCooldown reports whether an id is crafted on a daily cooldown
func (t *ExceptionTables) IsDailyCooldown(id int) bool {
	for _, cooldown := range t.DailyCooldownIDs {
		if cooldown == id {
			return true
		}
	}
	return false
}
