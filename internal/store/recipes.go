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

// RecipeIngredientInput is one ingredient line of a recipe payload.
type RecipeIngredientInput struct {
	ID     uint    `json:"id" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// RecipeInput is the full recipe payload used for creation and, after merging
// a patch, for updates.
type RecipeInput struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Text        string                  `json:"text" validate:"required"`
	Image       string                  `json:"image" validate:"max=500"`
	CookingTime int                     `json:"cooking_time" validate:"gte=1"`
	Tags        []uint                  `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Ingredients []RecipeIngredientInput `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
}

// RecipePatch carries the fields of a partial recipe update. A nil field keeps
// the stored value.
type RecipePatch struct {
	Name        *string                  `json:"name"`
	Text        *string                  `json:"text"`
	Image       *string                  `json:"image"`
	CookingTime *int                     `json:"cooking_time"`
	Tags        *[]uint                  `json:"tags"`
	Ingredients *[]RecipeIngredientInput `json:"ingredients"`
}

// RecipeFilter narrows ListRecipes. The collection flags only apply to
// authenticated viewers.
type RecipeFilter struct {
	Tags           []string
	AuthorID       uint
	IsFavorited    bool
	InShoppingCart bool
}

// RecipeDetail is a recipe decorated for the viewer that requested it.
type RecipeDetail struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

func normalizeRecipe(input RecipeInput) RecipeInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Text = strings.TrimSpace(input.Text)
	input.Image = strings.TrimSpace(input.Image)
	return input
}

// validateRecipe checks the whole aggregate before anything is written.
func validateRecipe(tx *gorm.DB, input RecipeInput) error {
	if verr := validateStruct(&input); verr != nil {
		return verr
	}

	fields := map[string]string{}

	var knownTags []uint
	if err := tx.Model(&models.Tag{}).Where("id IN ?", input.Tags).Pluck("id", &knownTags).Error; err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if missing := missingIDs(input.Tags, knownTags); len(missing) > 0 {
		fields["tags"] = fmt.Sprintf("Tags do not exist: %s.", joinIDs(missing))
	}

	ingredientIDs := make([]uint, 0, len(input.Ingredients))
	for _, line := range input.Ingredients {
		ingredientIDs = append(ingredientIDs, line.ID)
	}
	var knownIngredients []uint
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Pluck("id", &knownIngredients).Error; err != nil {
		return fmt.Errorf("check ingredients: %w", err)
	}
	known := make(map[uint]bool, len(knownIngredients))
	for _, id := range knownIngredients {
		known[id] = true
	}
	for i, line := range input.Ingredients {
		if !known[line.ID] {
			fields[fmt.Sprintf("ingredients[%d].id", i)] = fmt.Sprintf("Ingredient %d does not exist.", line.ID)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func missingIDs(want, have []uint) []uint {
	seen := make(map[uint]bool, len(have))
	for _, id := range have {
		seen[id] = true
	}
	var missing []uint
	for _, id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ", ")
}

// replaceAssociations swaps the tag and ingredient sets of a recipe. A nil
// argument leaves that set untouched.
func replaceAssociations(tx *gorm.DB, recipeID uint, tags []uint, ingredients []RecipeIngredientInput) error {
	if tags != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("clear recipe tags: %w", err)
		}
		rows := make([]models.RecipeTag, 0, len(tags))
		for _, id := range tags {
			rows = append(rows, models.RecipeTag{RecipeID: recipeID, TagID: id})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("store recipe tags: %w", translate(err))
		}
	}
	if ingredients != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		rows := make([]models.RecipeIngredient, 0, len(ingredients))
		for _, line := range ingredients {
			rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: line.ID, Amount: line.Amount})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("store recipe ingredients: %w", translate(err))
		}
	}
	return nil
}

// CreateRecipe stores a recipe with its tags and ingredients in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, actor Identity, input RecipeInput) (*RecipeDetail, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, err
	}
	input = normalizeRecipe(input)

	recipe := models.Recipe{
		AuthorID:    uid,
		Name:        input.Name,
		Text:        input.Text,
		Image:       input.Image,
		CookingTime: input.CookingTime,
	}
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateRecipe(tx, input); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", translate(err))
		}
		return replaceAssociations(tx, recipe.ID, input.Tags, input.Ingredients)
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return s.GetRecipe(ctx, actor, recipe.ID)
}

// UpdateRecipe applies patch to a recipe owned by actor. The recipe row is
// locked for the duration and the merged aggregate is validated before any
// association is replaced.
func (s *Store) UpdateRecipe(ctx context.Context, actor Identity, id uint, patch RecipePatch) (*RecipeDetail, error) {
	uid, err := requireUser(actor)
	if err != nil {
		return nil, err
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&recipe, id).Error; err != nil {
			return translate(err)
		}
		if recipe.AuthorID != uid {
			return ErrPermissionDenied
		}

		merged := RecipeInput{
			Name:        recipe.Name,
			Text:        recipe.Text,
			Image:       recipe.Image,
			CookingTime: recipe.CookingTime,
		}
		if patch.Name != nil {
			merged.Name = *patch.Name
		}
		if patch.Text != nil {
			merged.Text = *patch.Text
		}
		if patch.Image != nil {
			merged.Image = *patch.Image
		}
		if patch.CookingTime != nil {
			merged.CookingTime = *patch.CookingTime
		}

		var tags []uint
		if patch.Tags != nil {
			tags = append([]uint{}, (*patch.Tags)...)
			merged.Tags = tags
		} else if err := tx.Model(&models.RecipeTag{}).Where("recipe_id = ?", id).Order("id").Pluck("tag_id", &merged.Tags).Error; err != nil {
			return fmt.Errorf("load recipe tags: %w", err)
		}

		var ingredients []RecipeIngredientInput
		if patch.Ingredients != nil {
			ingredients = append([]RecipeIngredientInput{}, (*patch.Ingredients)...)
			merged.Ingredients = ingredients
		} else {
			var lines []models.RecipeIngredient
			if err := tx.Where("recipe_id = ?", id).Order("id").Find(&lines).Error; err != nil {
				return fmt.Errorf("load recipe ingredients: %w", err)
			}
			for _, line := range lines {
				merged.Ingredients = append(merged.Ingredients, RecipeIngredientInput{ID: line.IngredientID, Amount: line.Amount})
			}
		}

		merged = normalizeRecipe(merged)
		if err := validateRecipe(tx, merged); err != nil {
			return err
		}

		if err := tx.Model(&recipe).Select("name", "text", "image", "cooking_time", "updated_at").Updates(models.Recipe{
			Name:        merged.Name,
			Text:        merged.Text,
			Image:       merged.Image,
			CookingTime: merged.CookingTime,
		}).Error; err != nil {
			return fmt.Errorf("update recipe fields: %w", translate(err))
		}
		return replaceAssociations(tx, recipe.ID, tags, ingredients)
	})
	if err != nil {
		return nil, fmt.Errorf("update recipe %d: %w", id, err)
	}
	return s.GetRecipe(ctx, actor, id)
}

// DeleteRecipe removes a recipe and everything referencing it. Only the author
// or staff may delete.
func (s *Store) DeleteRecipe(ctx context.Context, actor Identity, id uint) error {
	uid, err := requireUser(actor)
	if err != nil {
		return err
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			return fmt.Errorf("find recipe %d: %w", id, translate(err))
		}
		if recipe.AuthorID != uid && !actor.IsStaff() {
			return ErrPermissionDenied
		}
		if err := deleteRecipeDependents(tx, recipe.ID); err != nil {
			return err
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return fmt.Errorf("delete recipe %d: %w", id, err)
		}
		return nil
	})
}

func deleteRecipeDependents(tx *gorm.DB, recipeIDs ...uint) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	for _, model := range []any{
		&models.RecipeIngredient{},
		&models.RecipeTag{},
		&models.Favorite{},
		&models.ShoppingCartItem{},
	} {
		if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(model).Error; err != nil {
			return fmt.Errorf("delete recipe dependents: %w", err)
		}
	}
	return nil
}

func withAggregate(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Ingredients.Ingredient")
}

// GetRecipe loads the full aggregate decorated for viewer.
func (s *Store) GetRecipe(ctx context.Context, viewer Identity, id uint) (*RecipeDetail, error) {
	var recipe models.Recipe
	if err := withAggregate(s.conn(ctx)).First(&recipe, id).Error; err != nil {
		return nil, fmt.Errorf("find recipe %d: %w", id, translate(err))
	}
	details, err := s.decorate(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// FindRecipe loads the recipe row alone.
func (s *Store) FindRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.conn(ctx).First(&recipe, id).Error; err != nil {
		return nil, fmt.Errorf("find recipe %d: %w", id, translate(err))
	}
	return &recipe, nil
}

// ListRecipes returns a page of recipes newest first along with the total
// number matching filter.
func (s *Store) ListRecipes(ctx context.Context, viewer Identity, filter RecipeFilter, page Page) ([]RecipeDetail, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if len(filter.Tags) > 0 {
			db = db.Where("recipes.id IN (?)", s.conn(ctx).
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.Tags))
		}
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if uid, ok := viewerID(viewer); ok {
			if filter.IsFavorited {
				db = db.Where("recipes.id IN (?)", s.conn(ctx).
					Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", uid))
			}
			if filter.InShoppingCart {
				db = db.Where("recipes.id IN (?)", s.conn(ctx).
					Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", uid))
			}
		}
		return db
	}

	var count int64
	if err := s.conn(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	var recipes []models.Recipe
	q := withAggregate(s.conn(ctx)).Scopes(scope).Order("recipes.created_at DESC, recipes.id DESC")
	if err := page.apply(q).Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	details, err := s.decorate(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return details, count, nil
}

// decorate computes the per-viewer flags for recipes in three queries.
func (s *Store) decorate(ctx context.Context, viewer Identity, recipes []models.Recipe) ([]RecipeDetail, error) {
	details := make([]RecipeDetail, 0, len(recipes))
	for _, recipe := range recipes {
		details = append(details, RecipeDetail{Recipe: recipe})
	}
	uid, ok := viewerID(viewer)
	if !ok || len(recipes) == 0 {
		return details, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	favorites, err := s.memberOf(ctx, &models.Favorite{}, uid, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := s.memberOf(ctx, &models.ShoppingCartItem{}, uid, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.subscribedTo(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range details {
		recipe := details[i].Recipe
		details[i].IsFavorited = favorites[recipe.ID]
		details[i].IsInShoppingCart = cart[recipe.ID]
		details[i].AuthorSubscribed = subscribed[recipe.AuthorID]
	}
	return details, nil
}

func (s *Store) memberOf(ctx context.Context, model any, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	var ids []uint
	if err := s.conn(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load collection membership: %w", err)
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// SortedTags returns the tags of a loaded recipe in association order.
func SortedTags(recipe models.Recipe) []models.Tag {
	links := append([]models.RecipeTag(nil), recipe.Tags...)
	sort.SliceStable(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	tags := make([]models.Tag, 0, len(links))
	for _, link := range links {
		tags = append(tags, link.Tag)
	}
	return tags
}
