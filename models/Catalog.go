package models

import (
	"strings"
	"time"
)

// Measurement units accepted for ingredients.
const (
	UnitGram       = "г"
	UnitMilliliter = "мл"
	UnitPiece      = "шт"
	UnitKilogram   = "кг"
	UnitLiter      = "л"
	UnitTeaspoon   = "ч. л."
	UnitTablespoon = "ст. л."
)

// MeasurementUnits lists every accepted unit in display order.
var MeasurementUnits = []string{
	UnitGram,
	UnitMilliliter,
	UnitPiece,
	UnitKilogram,
	UnitLiter,
	UnitTeaspoon,
	UnitTablespoon,
}

var unitAliases = map[string]string{
	"g":          UnitGram,
	"gram":       UnitGram,
	"гр":         UnitGram,
	"ml":         UnitMilliliter,
	"milliliter": UnitMilliliter,
	"pcs":        UnitPiece,
	"piece":      UnitPiece,
	"kg":         UnitKilogram,
	"kilogram":   UnitKilogram,
	"l":          UnitLiter,
	"liter":      UnitLiter,
	"tsp":        UnitTeaspoon,
	"teaspoon":   UnitTeaspoon,
	"ч.л.":       UnitTeaspoon,
	"tbsp":       UnitTablespoon,
	"tablespoon": UnitTablespoon,
	"ст.л.":      UnitTablespoon,
}

// ValidUnit reports whether value is one of the canonical measurement units.
func ValidUnit(value string) bool {
	for _, unit := range MeasurementUnits {
		if unit == value {
			return true
		}
	}
	return false
}

// NormalizeUnit maps common spellings onto a canonical unit. Unknown values are
// returned trimmed so validation can reject them.
func NormalizeUnit(value string) string {
	trimmed := strings.TrimSpace(value)
	if ValidUnit(trimmed) {
		return trimmed
	}
	if canonical, ok := unitAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Tag labels recipes, e.g. breakfast or dinner.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Color     string    `gorm:"size:7;not null" json:"color"`
	Slug      string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Ingredient is global reference data shared by every recipe.
type Ingredient struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:200;not null;index" json:"name"`
	NameLower       string    `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"-"`
	MeasurementUnit string    `gorm:"size:50;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// SyncSearchKey refreshes the lower-cased column used for prefix search.
func (i *Ingredient) SyncSearchKey() {
	i.Name = strings.TrimSpace(i.Name)
	i.NameLower = strings.ToLower(i.Name)
}
