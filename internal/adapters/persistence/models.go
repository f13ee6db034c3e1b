package persistence

import (
	"time"
)

// ItemModel represents the items table
type ItemModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name      string    `gorm:"column:name;not null"`
	Icon      string    `gorm:"column:icon"`
	Rarity    string    `gorm:"column:rarity"`
	Kind      string    `gorm:"column:kind;not null;default:'Item'"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (ItemModel) TableName() string {
	return "items"
}

// RecipeModel represents the recipes table
type RecipeModel struct {
	ID              int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	OutputItemID    int       `gorm:"column:output_item_id;index;not null"`
	OutputItemCount int       `gorm:"column:output_item_count;not null"`
	OutputUpgradeID int       `gorm:"column:output_upgrade_id;index"`
	Ingredients     string    `gorm:"column:ingredients;type:text;not null"` // JSON array as text
	Disciplines     string    `gorm:"column:disciplines;type:text"`          // JSON array as text
	MinRating       int       `gorm:"column:min_rating;default:0"`
	Merchant        string    `gorm:"column:merchant;type:text"` // JSON object as text, empty when not a vendor recipe
	DailyCap        int       `gorm:"column:daily_cap;default:0"`
	WeeklyCap       int       `gorm:"column:weekly_cap;default:0"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (RecipeModel) TableName() string {
	return "recipes"
}

// PriceModel represents the prices table. Prices are copper per unit.
type PriceModel struct {
	ItemID        int       `gorm:"column:item_id;primaryKey;autoIncrement:false"`
	BuyPriceEach  int       `gorm:"column:buy_price_each;not null"`
	SellPriceEach int       `gorm:"column:sell_price_each;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (PriceModel) TableName() string {
	return "prices"
}

// DecorationModel represents the guild_decorations table
type DecorationModel struct {
	UpgradeID int `gorm:"column:upgrade_id;primaryKey;autoIncrement:false"`
	ItemID    int `gorm:"column:item_id;not null"`
}

func (DecorationModel) TableName() string {
	return "guild_decorations"
}
