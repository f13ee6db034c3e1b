package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// batchSize bounds rows per INSERT so large catalogs stay under driver parameter limits
const batchSize = 500

// GormCatalogRepository implements the crafting catalog ports using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GORM catalog repository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindItems retrieves the items among ids. Unknown ids are absent from the result.
func (r *GormCatalogRepository) FindItems(ctx context.Context, ids []int) (map[int]*crafting.Item, error) {
	result := make(map[int]*crafting.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []ItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	for _, model := range models {
		result[model.ID] = &crafting.Item{
			ID:     model.ID,
			Name:   model.Name,
			Icon:   model.Icon,
			Rarity: model.Rarity,
			Kind:   crafting.ParseItemKind(model.Kind),
		}
	}
	return result, nil
}

// FindAllRecipes retrieves every recipe ordered by id
func (r *GormCatalogRepository) FindAllRecipes(ctx context.Context) ([]*crafting.Recipe, error) {
	var models []RecipeModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]*crafting.Recipe, 0, len(models))
	for i := range models {
		recipe, err := r.modelToRecipe(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert recipe %d: %w", models[i].ID, err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// FindByOutputID retrieves the lowest-id recipe producing an item, or nil if none does
func (r *GormCatalogRepository) FindByOutputID(ctx context.Context, outputItemID int) (*crafting.Recipe, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).Where("output_item_id = ?", outputItemID).Order("id").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recipe for %d: %w", outputItemID, err)
	}
	return r.modelToRecipe(&model)
}

// FindPrices retrieves the prices among ids. Untraded ids are absent from the result.
func (r *GormCatalogRepository) FindPrices(ctx context.Context, ids []int) (map[int]*crafting.MarketPrice, error) {
	result := make(map[int]*crafting.MarketPrice, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []PriceModel
	if err := r.db.WithContext(ctx).Where("item_id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find prices: %w", err)
	}
	for _, model := range models {
		result[model.ItemID] = &crafting.MarketPrice{
			ID:            model.ItemID,
			BuyPriceEach:  model.BuyPriceEach,
			SellPriceEach: model.SellPriceEach,
		}
	}
	return result, nil
}

// FindDecorations retrieves the guild upgrade → decoration item mapping
func (r *GormCatalogRepository) FindDecorations(ctx context.Context) (map[int]int, error) {
	var models []DecorationModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list decorations: %w", err)
	}
	result := make(map[int]int, len(models))
	for _, model := range models {
		result[model.UpgradeID] = model.ItemID
	}
	return result, nil
}

// SaveCatalog upserts a dump in one transaction. Existing rows with the same key
// are overwritten; rows absent from the dump are kept.
func (r *GormCatalogRepository) SaveCatalog(ctx context.Context, dump *crafting.CatalogDump) error {
	items, recipes, prices, decorations := dump.Items, dump.Recipes, dump.Prices, dump.Decorations
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			models := make([]ItemModel, len(items))
			for i, item := range items {
				kind := item.Kind
				if kind == "" {
					kind = crafting.KindItem
				}
				models[i] = ItemModel{
					ID:        item.ID,
					Name:      item.Name,
					Icon:      item.Icon,
					Rarity:    item.Rarity,
					Kind:      string(kind),
					UpdatedAt: now,
				}
			}
			if err := upsert(tx, &models); err != nil {
				return fmt.Errorf("failed to save items: %w", err)
			}
		}

		if len(recipes) > 0 {
			models := make([]RecipeModel, len(recipes))
			for i, recipe := range recipes {
				model, err := r.recipeToModel(recipe, now)
				if err != nil {
					return err
				}
				models[i] = *model
			}
			if err := upsert(tx, &models); err != nil {
				return fmt.Errorf("failed to save recipes: %w", err)
			}
		}

		if len(prices) > 0 {
			models := make([]PriceModel, len(prices))
			for i, price := range prices {
				models[i] = PriceModel{
					ItemID:        price.ID,
					BuyPriceEach:  price.BuyPriceEach,
					SellPriceEach: price.SellPriceEach,
					UpdatedAt:     now,
				}
			}
			if err := upsert(tx, &models); err != nil {
				return fmt.Errorf("failed to save prices: %w", err)
			}
		}

		if len(decorations) > 0 {
			models := make([]DecorationModel, 0, len(decorations))
			for upgradeID, itemID := range decorations {
				models = append(models, DecorationModel{UpgradeID: upgradeID, ItemID: itemID})
			}
			if err := upsert(tx, &models); err != nil {
				return fmt.Errorf("failed to save decorations: %w", err)
			}
		}

		return nil
	})
}

// Counts returns the number of stored items, recipes and prices
func (r *GormCatalogRepository) Counts(ctx context.Context) (items, recipes, prices int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&ItemModel{}).Count(&items).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count items: %w", err)
	}
	if err = db.Model(&RecipeModel{}).Count(&recipes).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if err = db.Model(&PriceModel{}).Count(&prices).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count prices: %w", err)
	}
	return items, recipes, prices, nil
}

func upsert(tx *gorm.DB, models interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(models, batchSize).Error
}

func (r *GormCatalogRepository) recipeToModel(recipe *crafting.Recipe, now time.Time) (*RecipeModel, error) {
	ingredients, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients of recipe %d: %w", recipe.ID, err)
	}
	disciplines, err := json.Marshal(recipe.Disciplines)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal disciplines of recipe %d: %w", recipe.ID, err)
	}
	var merchant string
	if recipe.Merchant != nil {
		bytes, err := json.Marshal(recipe.Merchant)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal merchant of recipe %d: %w", recipe.ID, err)
		}
		merchant = string(bytes)
	}

	return &RecipeModel{
		ID:              recipe.ID,
		OutputItemID:    recipe.OutputItemID,
		OutputItemCount: recipe.OutputItemCount,
		OutputUpgradeID: recipe.OutputUpgradeID,
		Ingredients:     string(ingredients),
		Disciplines:     string(disciplines),
		MinRating:       recipe.MinRating,
		Merchant:        merchant,
		DailyCap:        recipe.DailyCap,
		WeeklyCap:       recipe.WeeklyCap,
		UpdatedAt:       now,
	}, nil
}

func (r *GormCatalogRepository) modelToRecipe(model *RecipeModel) (*crafting.Recipe, error) {
	recipe := &crafting.Recipe{
		ID:              model.ID,
		OutputItemID:    model.OutputItemID,
		OutputItemCount: model.OutputItemCount,
		OutputUpgradeID: model.OutputUpgradeID,
		MinRating:       model.MinRating,
		DailyCap:        model.DailyCap,
		WeeklyCap:       model.WeeklyCap,
	}
	if err := json.Unmarshal([]byte(model.Ingredients), &recipe.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if model.Disciplines != "" {
		if err := json.Unmarshal([]byte(model.Disciplines), &recipe.Disciplines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal disciplines: %w", err)
		}
	}
	if model.Merchant != "" {
		recipe.Merchant = &crafting.Merchant{}
		if err := json.Unmarshal([]byte(model.Merchant), recipe.Merchant); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merchant: %w", err)
		}
	}
	return recipe, nil
}
