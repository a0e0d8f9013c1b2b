package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodgram/models"
)

type collection struct {
	name  string
	model func() any
	entry func(userID, recipeID uint) any
}

var (
	favorites = collection{
		name:  "favorites",
		model: func() any { return &models.Favorite{} },
		entry: func(userID, recipeID uint) any {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
	shoppingCart = collection{
		name:  "shopping cart",
		model: func() any { return &models.ShoppingCartItem{} },
		entry: func(userID, recipeID uint) any {
			return &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
	}
)

// AddFavorite marks recipeID as a favorite of actor.
func (s *Store) AddFavorite(ctx context.Context, actor Identity, recipeID uint) (*models.Recipe, error) {
	return s.addTo(ctx, favorites, actor, recipeID)
}

// RemoveFavorite drops recipeID from actor's favorites.
func (s *Store) RemoveFavorite(ctx context.Context, actor Identity, recipeID uint) error {
	return s.removeFrom(ctx, favorites, actor, recipeID)
}

// AddToCart puts recipeID on actor's shopping list.
func (s *Store) AddToCart(ctx context.Context, actor Identity, recipeID uint) (*models.Recipe, error) {
	return s.addTo(ctx, shoppingCart, actor, recipeID)
}

// RemoveFromCart takes recipeID off actor's shopping list.
func (s *Store) RemoveFromCart(ctx context.Context, actor Identity, recipeID uint) error {
	return s.removeFrom(ctx, shoppingCart, actor, recipeID)
}

func (s *Store) addTo(ctx context.Context, c collection, actor Identity, recipeID uint) (*models.Recipe, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, err
	}

	var recipe models.Recipe
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return translate(err)
		}
		taken, err := exists(tx.Model(c.model()).Where("user_id = ? AND recipe_id = ?", uid, recipeID))
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "recipe", Message: fmt.Sprintf("Recipe is already in %s.", c.name)}
		}
		return translate(tx.Omit(clause.Associations).Create(c.entry(uid, recipeID)).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("add recipe %d to %s: %w", recipeID, c.name, err)
	}
	return &recipe, nil
}

func (s *Store) removeFrom(ctx context.Context, c collection, actor Identity, recipeID uint) error {
	uid, err := requireUser(actor)
	if err != nil {
		return err
	}
	if _, err := s.FindRecipe(ctx, recipeID); err != nil {
		return err
	}
	res := s.conn(ctx).Where("user_id = ? AND recipe_id = ?", uid, recipeID).Delete(c.model())
	if res.Error != nil {
		return fmt.Errorf("remove recipe %d from %s: %w", recipeID, c.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe %d in %s: %w", recipeID, c.name, ErrNotFound)
	}
	return nil
}

// ShoppingListLine is one consolidated entry of a shopping list.
type ShoppingListLine struct {
	IngredientID uint
	Name         string
	Unit         string
	Amount       float64
}

// ShoppingList aggregates the ingredients of every recipe in actor's cart.
func (s *Store) ShoppingList(ctx context.Context, actor Identity) ([]ShoppingListLine, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, err
	}
	var lines []models.RecipeIngredient
	err = s.conn(ctx).
		Preload("Ingredient").
		Where("recipe_id IN (?)", s.conn(ctx).Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", uid)).
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("load shopping list: %w", err)
	}
	return ConsolidateShoppingList(lines), nil
}

// ConsolidateShoppingList sums amounts per ingredient and sorts the result by
// name, ignoring case, then by unit.
func ConsolidateShoppingList(lines []models.RecipeIngredient) []ShoppingListLine {
	byIngredient := make(map[uint]*ShoppingListLine, len(lines))
	for _, line := range lines {
		entry, ok := byIngredient[line.IngredientID]
		if !ok {
			entry = &ShoppingListLine{
				IngredientID: line.IngredientID,
				Name:         line.Ingredient.Name,
				Unit:         line.Ingredient.MeasurementUnit,
			}
			byIngredient[line.IngredientID] = entry
		}
		entry.Amount += line.Amount
	}

	out := make([]ShoppingListLine, 0, len(byIngredient))
	for _, entry := range byIngredient {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		if out[i].Unit != out[j].Unit {
			return out[i].Unit < out[j].Unit
		}
		return out[i].IngredientID < out[j].IngredientID
	})
	return out
}
