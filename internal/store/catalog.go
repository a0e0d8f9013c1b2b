package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"foodgram/models"
)

// TagInput is the payload for creating a tag.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,len=7,hexcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// TagPatch carries the fields of a partial tag update.
type TagPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Slug  *string `json:"slug"`
}

// ListTags returns every tag ordered by name. Tags are not paginated.
func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.conn(ctx).Order("name ASC, id ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetTag loads a single tag.
func (s *Store) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.conn(ctx).First(&tag, id).Error; err != nil {
		return nil, fmt.Errorf("find tag %d: %w", id, translate(err))
	}
	return &tag, nil
}

// CreateTag adds a tag. Any authenticated caller may create tags.
func (s *Store) CreateTag(ctx context.Context, actor Identity, input TagInput) (*models.Tag, error) {
	if _, err := requireUser(actor); err != nil {
		return nil, err
	}
	input = normalizeTag(input)
	if verr := validateStruct(&input); verr != nil {
		return nil, verr
	}

	tag := &models.Tag{Name: input.Name, Color: input.Color, Slug: input.Slug}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSlugFree(tx, tag.Slug, 0); err != nil {
			return err
		}
		return translate(tx.Create(tag).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// UpdateTag applies a partial update. Staff only.
func (s *Store) UpdateTag(ctx context.Context, actor Identity, id uint, patch TagPatch) (*models.Tag, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var tag models.Tag
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			return translate(err)
		}
		merged := TagInput{Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
		if patch.Name != nil {
			merged.Name = *patch.Name
		}
		if patch.Color != nil {
			merged.Color = *patch.Color
		}
		if patch.Slug != nil {
			merged.Slug = *patch.Slug
		}
		merged = normalizeTag(merged)
		if verr := validateStruct(&merged); verr != nil {
			return verr
		}
		if err := ensureSlugFree(tx, merged.Slug, tag.ID); err != nil {
			return err
		}
		tag.Name, tag.Color, tag.Slug = merged.Name, merged.Color, merged.Slug
		return translate(tx.Save(&tag).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("update tag %d: %w", id, err)
	}
	return &tag, nil
}

// DeleteTag removes a tag and its recipe associations. Staff only.
func (s *Store) DeleteTag(ctx context.Context, actor Identity, id uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return fmt.Errorf("find tag %d: %w", id, translate(err))
		}
		if err := tx.Where("tag_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("delete tag associations: %w", err)
		}
		if err := tx.Delete(&tag).Error; err != nil {
			return fmt.Errorf("delete tag %d: %w", id, err)
		}
		return nil
	})
}

func normalizeTag(input TagInput) TagInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Color = strings.ToUpper(strings.TrimSpace(input.Color))
	input.Slug = strings.TrimSpace(input.Slug)
	return input
}

func ensureSlugFree(tx *gorm.DB, slug string, except uint) error {
	q := tx.Model(&models.Tag{}).Where("slug = ?", slug)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	taken, err := exists(q)
	if err != nil {
		return err
	}
	if taken {
		return &ConflictError{Field: "slug", Message: "A tag with this slug already exists."}
	}
	return nil
}

// IngredientInput is the payload for creating an ingredient.
type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,measurement_unit"`
}

// IngredientPatch carries the fields of a partial ingredient update.
type IngredientPatch struct {
	Name            *string `json:"name"`
	MeasurementUnit *string `json:"measurement_unit"`
}

// ListIngredients returns ingredients ordered by name. A non-empty search
// keeps only names starting with it, ignoring case.
func (s *Store) ListIngredients(ctx context.Context, search string) ([]models.Ingredient, error) {
	q := s.conn(ctx).Order("name_lower ASC, measurement_unit ASC, id ASC")
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		q = q.Where(`name_lower LIKE ? ESCAPE '\'`, escapeLike(term)+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient loads a single ingredient.
func (s *Store) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.conn(ctx).First(&ingredient, id).Error; err != nil {
		return nil, fmt.Errorf("find ingredient %d: %w", id, translate(err))
	}
	return &ingredient, nil
}

// CreateIngredient adds an ingredient. The (name, unit) pair must be new.
func (s *Store) CreateIngredient(ctx context.Context, actor Identity, input IngredientInput) (*models.Ingredient, error) {
	if _, err := requireUser(actor); err != nil {
		return nil, err
	}
	ingredient, err := prepareIngredient(input)
	if err != nil {
		return nil, err
	}
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIngredientFree(tx, ingredient, 0); err != nil {
			return err
		}
		return translate(tx.Create(ingredient).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return ingredient, nil
}

// UpsertIngredient inserts the ingredient unless one with the same name and
// unit exists. created reports whether a row was written.
func (s *Store) UpsertIngredient(ctx context.Context, input IngredientInput) (ingredient *models.Ingredient, created bool, err error) {
	ingredient, err = prepareIngredient(input)
	if err != nil {
		return nil, false, err
	}
	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Ingredient
		res := tx.Where("name_lower = ? AND measurement_unit = ?", ingredient.NameLower, ingredient.MeasurementUnit).
			Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			ingredient = &existing
			return nil
		}
		created = true
		return translate(tx.Create(ingredient).Error)
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert ingredient %q: %w", input.Name, err)
	}
	return ingredient, created, nil
}

// UpdateIngredient applies a partial update. Staff only.
func (s *Store) UpdateIngredient(ctx context.Context, actor Identity, id uint, patch IngredientPatch) (*models.Ingredient, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var current models.Ingredient
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&current, id).Error; err != nil {
			return translate(err)
		}
		merged := IngredientInput{Name: current.Name, MeasurementUnit: current.MeasurementUnit}
		if patch.Name != nil {
			merged.Name = *patch.Name
		}
		if patch.MeasurementUnit != nil {
			merged.MeasurementUnit = *patch.MeasurementUnit
		}
		next, err := prepareIngredient(merged)
		if err != nil {
			return err
		}
		if err := ensureIngredientFree(tx, next, current.ID); err != nil {
			return err
		}
		current.Name, current.NameLower, current.MeasurementUnit = next.Name, next.NameLower, next.MeasurementUnit
		return translate(tx.Save(&current).Error)
	})
	if err != nil {
		return nil, fmt.Errorf("update ingredient %d: %w", id, err)
	}
	return &current, nil
}

// DeleteIngredient removes an ingredient and every recipe line using it. Staff only.
func (s *Store) DeleteIngredient(ctx context.Context, actor Identity, id uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, id).Error; err != nil {
			return fmt.Errorf("find ingredient %d: %w", id, translate(err))
		}
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete ingredient lines: %w", err)
		}
		if err := tx.Delete(&ingredient).Error; err != nil {
			return fmt.Errorf("delete ingredient %d: %w", id, err)
		}
		return nil
	})
}

func prepareIngredient(input IngredientInput) (*models.Ingredient, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.MeasurementUnit = models.NormalizeUnit(input.MeasurementUnit)
	if verr := validateStruct(&input); verr != nil {
		return nil, verr
	}
	ingredient := &models.Ingredient{Name: input.Name, MeasurementUnit: input.MeasurementUnit}
	ingredient.SyncSearchKey()
	return ingredient, nil
}

func ensureIngredientFree(tx *gorm.DB, ingredient *models.Ingredient, except uint) error {
	q := tx.Model(&models.Ingredient{}).
		Where("name_lower = ? AND measurement_unit = ?", ingredient.NameLower, ingredient.MeasurementUnit)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	taken, err := exists(q)
	if err != nil {
		return err
	}
	if taken {
		return &ConflictError{Field: "name", Message: "This ingredient already exists with the same unit."}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
