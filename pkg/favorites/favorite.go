// Package favorites implements the durable favorites store: recipe snapshots
// saved by the user, readable and writable regardless of network state.
package favorites

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Ingredient is one ingredient/measure pair from a recipe.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// IngredientList is stored as a JSON text column.
type IngredientList []Ingredient

// Value implements driver.Valuer.
func (l IngredientList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal ingredients: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported ingredients column type %T", value)
	}

	return json.Unmarshal(data, l)
}

// Favorite is a self-contained snapshot of a recipe at the time it was
// saved. It carries no foreign keys: if the upstream recipe later changes,
// the favorite does not. Absent fields stay empty rather than null-filled.
type Favorite struct {
	ID           string         `gorm:"primaryKey" json:"idMeal"`
	Name         string         `json:"strMeal"`
	Thumbnail    string         `json:"strMealThumb"`
	Category     string         `json:"strCategory"`
	Area         string         `json:"strArea"`
	Tags         string         `json:"strTags"`
	Instructions string         `json:"strInstructions"`
	Source       string         `json:"strSource"`
	YouTube      string         `gorm:"column:youtube" json:"strYoutube"`
	Ingredients  IngredientList `gorm:"type:text" json:"ingredients"`

	// CreatedAt backs "recent" ordering in the favorites list. It is set on
	// first save and preserved across re-saves.
	CreatedAt time.Time `json:"createdAt"`
}
